// Package palette shows a one-level action list through an external
// launcher (rofi, fuzzel, wofi, dmenu) or a numbered terminal prompt.
package palette

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCancelled is returned when the user closes the palette without selecting an item.
var ErrCancelled = errors.New("palette cancelled")

// Item is one row. Separators and disabled items are not selectable.
type Item struct {
	Label     string
	Action    string
	Shortcut  string // shown as a hint, e.g. "q"
	Disabled  bool
	Separator bool
}

func (it Item) selectable() bool {
	return !it.Separator && !it.Disabled && it.Action != ""
}

// Backend shows items and returns the chosen one.
type Backend interface {
	Show(prompt string, items []Item, message string) (Item, error)
	Name() string
}

// AutoDetect selects the first available launcher, then the terminal.
func AutoDetect() (Backend, error) {
	name, err := DetectBackend()
	if err != nil {
		return nil, err
	}
	return NewBackend(name)
}

// NewBackend creates a backend by name.
//
// Supported names: auto, rofi, fuzzel, wofi, dmenu, terminal.
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "auto":
		return AutoDetect()
	case "terminal":
		return NewTerminalBackend(nil, nil), nil
	case "rofi", "fuzzel", "wofi", "dmenu":
		if _, err := exec.LookPath(name); err != nil {
			return nil, fmt.Errorf("palette backend %q not found in PATH", name)
		}
		return newLauncher(name), nil
	default:
		return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, rofi, fuzzel, wofi, dmenu, terminal)", name)
	}
}

// Choose shows items and re-prompts when the backend hands back a row
// that cannot be selected.
func Choose(b Backend, prompt string, items []Item, message string) (Item, error) {
	if !hasSelectable(items) {
		return Item{}, fmt.Errorf("palette: no selectable items")
	}
	for {
		it, err := b.Show(prompt, items, message)
		if err != nil {
			return Item{}, err
		}
		if it.selectable() {
			return it, nil
		}
	}
}

func hasSelectable(items []Item) bool {
	for _, it := range items {
		if it.selectable() {
			return true
		}
	}
	return false
}

func sanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, "\r", " ")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.TrimSpace(label)
}
