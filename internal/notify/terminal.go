package notify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// knownTerminals are tried in order when $TERMINAL is unset. All accept
// "-e cmd args...".
var knownTerminals = []string{
	"x-terminal-emulator",
	"kitty",
	"alacritty",
	"wezterm",
	"foot",
	"gnome-terminal",
	"konsole",
	"xfce4-terminal",
	"xterm",
}

// ResolveTerminal returns the terminal emulator to run interactive tools
// in: $TERMINAL when it resolves, else the first known one in PATH.
func ResolveTerminal() (string, error) {
	if env := strings.TrimSpace(os.Getenv("TERMINAL")); env != "" {
		if path, err := execLookPath(env); err == nil {
			return path, nil
		}
	}
	for _, name := range knownTerminals {
		if path, err := execLookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no terminal emulator found (set $TERMINAL)")
}

// terminalArgs builds the argv that runs command inside terminal.
func terminalArgs(terminal string, command []string) []string {
	switch filepath.Base(terminal) {
	case "gnome-terminal":
		return append([]string{"--"}, command...)
	case "wezterm":
		return append([]string{"start", "--"}, command...)
	default:
		return append([]string{"-e"}, command...)
	}
}

// OpenInTerminal starts command in a new terminal window without waiting.
func OpenInTerminal(command ...string) error {
	if len(command) == 0 {
		return fmt.Errorf("no command to run")
	}
	terminal, err := ResolveTerminal()
	if err != nil {
		return err
	}
	cmd := execCommand(terminal, terminalArgs(terminal, command)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", filepath.Base(terminal), err)
	}
	go cmd.Wait()
	return nil
}
