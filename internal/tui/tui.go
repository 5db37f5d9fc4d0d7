// Package tui is penc's terminal preferences editor.
package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/penc/internal/config"
	"github.com/1broseidon/penc/internal/ipc"
)

// Run opens the editor for the config at configPath, or the resolved
// default path when empty. A running agent is reloaded after each save.
func Run(configPath string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("preferences editor requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	if configPath == "" {
		env, err := config.ReadEnv()
		if err != nil {
			return err
		}
		configPath, err = config.ResolvePath(env)
		if err != nil {
			return err
		}
	}

	p := tea.NewProgram(newModel(configPath, ipc.NewClient()), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
