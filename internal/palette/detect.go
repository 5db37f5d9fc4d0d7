package palette

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/term"
)

// DetectBackend returns the first available palette backend found in PATH, in
// priority order: rofi, fuzzel, wofi, dmenu. Without a launcher it falls back
// to the terminal when stdin is interactive.
func DetectBackend() (string, error) {
	for _, name := range []string{"rofi", "fuzzel", "wofi", "dmenu"} {
		if _, err := exec.LookPath(name); err == nil {
			return name, nil
		}
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return "terminal", nil
	}
	return "", fmt.Errorf("no palette backend found in PATH (looked for: rofi, fuzzel, wofi, dmenu) and stdin is not a terminal")
}
