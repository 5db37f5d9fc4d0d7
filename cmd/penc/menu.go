package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/penc/internal/ipc"
	"github.com/1broseidon/penc/internal/menu"
	"github.com/1broseidon/penc/internal/palette"
)

func runMenu(args []string) int {
	fs := flag.NewFlagSet("menu", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	backendName := fs.String("backend", "auto", "Palette backend: auto, rofi, fuzzel, wofi, dmenu, terminal")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: penc menu [--backend NAME]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the status menu in a launcher and run the chosen item.")
		fmt.Fprintln(os.Stderr, "Bind this to a key or a panel button to get a menu-bar style menu.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}

	client := ipc.NewClient()
	m, err := client.GetMenu()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	var message string
	if status, err := client.GetStatus(); err == nil {
		message = menuMessage(status)
	}

	backend, err := palette.NewBackend(*backendName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	chosen, err := palette.Choose(backend, "penc", paletteItems(m), message)
	if err != nil {
		if errors.Is(err, palette.ErrCancelled) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := client.MenuAction(chosen.Action, m.AppID); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func paletteItems(m *menu.Menu) []palette.Item {
	items := make([]palette.Item, 0, len(m.Items))
	for _, it := range m.Items {
		if it.Separator {
			items = append(items, palette.Item{Separator: true})
			continue
		}
		items = append(items, palette.Item{
			Label:    it.Title,
			Action:   it.Action,
			Shortcut: it.Key,
			Disabled: !it.Enabled,
		})
	}
	return items
}

func menuMessage(status *ipc.StatusData) string {
	state := "enabled"
	if status.Disabled {
		state = "disabled"
	}
	msg := fmt.Sprintf("Penc %s, %s", status.Version, state)
	if name := status.FrontmostAppName; name != "" {
		msg += fmt.Sprintf(" (frontmost: %s)", name)
	} else if status.FrontmostApp != "" {
		msg += fmt.Sprintf(" (frontmost: %s)", status.FrontmostApp)
	}
	return msg
}
