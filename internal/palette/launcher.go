package palette

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

type launcherKind int

const (
	kindRofi launcherKind = iota
	kindFuzzel
	kindWofi
	kindDmenu
)

var launcherKinds = map[string]launcherKind{
	"rofi":   kindRofi,
	"fuzzel": kindFuzzel,
	"wofi":   kindWofi,
	"dmenu":  kindDmenu,
}

const separatorLabel = "────────"

// launcher drives a dmenu-compatible program over stdin/stdout.
type launcher struct {
	command string
	kind    launcherKind
}

func newLauncher(name string) *launcher {
	return &launcher{command: name, kind: launcherKinds[name]}
}

func (l *launcher) Name() string {
	return l.command
}

// indexOutput reports whether the launcher prints the row index rather
// than the row text.
func (l *launcher) indexOutput() bool {
	return l.kind == kindRofi || l.kind == kindFuzzel
}

func (l *launcher) Show(prompt string, items []Item, message string) (Item, error) {
	if len(items) == 0 {
		return Item{}, fmt.Errorf("palette: no items to show")
	}
	rows := l.rows(items)

	cmd := exec.Command(l.command, l.args(prompt, message, items)...)
	cmd.Stdin = strings.NewReader(strings.Join(rows, "\n"))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	selection := strings.TrimSpace(string(out))
	if err != nil {
		if selection == "" && isCancelExit(err) {
			return Item{}, ErrCancelled
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Item{}, fmt.Errorf("%s failed: %s", l.command, msg)
		}
		return Item{}, fmt.Errorf("%s failed: %w", l.command, err)
	}
	if selection == "" {
		return Item{}, ErrCancelled
	}
	return l.parse(selection, items, rows)
}

func (l *launcher) args(prompt, message string, items []Item) []string {
	var args []string
	switch l.kind {
	case kindRofi:
		args = []string{"-dmenu", "-i", "-format", "i", "-no-custom", "-markup-rows"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		if message != "" {
			args = append(args, "-mesg", message)
		}
		for i, it := range items {
			if it.selectable() {
				args = append(args, "-selected-row", strconv.Itoa(i))
				break
			}
		}
	case kindFuzzel:
		args = []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case kindWofi:
		args = []string{"--dmenu", "--allow-markup"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case kindDmenu:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}
	return args
}

// rows renders one line per item. Text-matching launchers get unique
// labels.
func (l *launcher) rows(items []Item) []string {
	rows := make([]string, len(items))
	seen := make(map[string]int)
	for i, it := range items {
		text := sanitizeLabel(it.Label)
		if it.Separator {
			text = separatorLabel
		}
		if it.Shortcut != "" {
			text = fmt.Sprintf("%s  [%s]", text, it.Shortcut)
		}
		if !l.indexOutput() && !it.Separator {
			key := text
			if n := seen[key]; n > 0 {
				text = fmt.Sprintf("%s (%d)", key, n+1)
			}
			seen[key]++
		}
		rows[i] = l.decorate(text, it)
	}
	return rows
}

func (l *launcher) decorate(text string, it Item) string {
	switch l.kind {
	case kindRofi:
		text = html.EscapeString(text)
		if !it.selectable() {
			return fmt.Sprintf("<span foreground='#666666'>%s</span>\x00nonselectable\x1ftrue", text)
		}
		return text
	case kindWofi:
		text = html.EscapeString(text)
		if !it.selectable() {
			return fmt.Sprintf("<span foreground='#666666'>%s</span>", text)
		}
		return text
	default:
		return text
	}
}

func (l *launcher) parse(selection string, items []Item, rows []string) (Item, error) {
	if l.indexOutput() {
		idx, err := strconv.Atoi(selection)
		if err == nil {
			if idx < 0 || idx >= len(items) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return items[idx], nil
		}
	}
	for i, row := range rows {
		if stripMarkup(row) == selection {
			return items[i], nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", selection)
}

func stripMarkup(row string) string {
	if i := strings.IndexByte(row, 0); i >= 0 {
		row = row[:i]
	}
	row = strings.TrimPrefix(row, "<span foreground='#666666'>")
	row = strings.TrimSuffix(row, "</span>")
	return html.UnescapeString(row)
}

func isCancelExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	// 1 is "no selection", 130 is Ctrl+C.
	switch exitErr.ExitCode() {
	case 1, 130:
		return true
	default:
		return false
	}
}
