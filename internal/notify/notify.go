// Package notify shows user-facing dialogs and notifications through the
// desktop's command-line helpers, falling back to stderr.
package notify

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

var (
	execLookPath = exec.LookPath
	execCommand  = exec.Command
)

// Kind selects the dialog style.
type Kind int

const (
	KindInfo Kind = iota
	KindError
)

// Notifier is what the agent uses to talk to the user.
type Notifier interface {
	// Dialog shows a modal message and blocks until it is dismissed.
	Dialog(kind Kind, title, body string) error
	// Notify shows a transient notification without blocking.
	Notify(summary, body string)
}

// Desktop implements Notifier with zenity and notify-send.
type Desktop struct {
	appName string
	stderr  io.Writer
	logger  *zap.Logger
}

// NewDesktop returns a notifier that labels messages with appName.
func NewDesktop(appName string, logger *zap.Logger) *Desktop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Desktop{appName: appName, stderr: os.Stderr, logger: logger}
}

// Dialog tries zenity, then a notify-send notification, then stderr.
func (d *Desktop) Dialog(kind Kind, title, body string) error {
	if _, err := execLookPath("zenity"); err == nil {
		flag := "--info"
		if kind == KindError {
			flag = "--error"
		}
		err := execCommand("zenity", flag, "--title", title, "--text", body, "--no-wrap").Run()
		var exitErr *exec.ExitError
		if err == nil || errors.As(err, &exitErr) {
			// A non-zero exit means the user closed the dialog.
			return nil
		}
		d.logger.Debug("zenity failed", zap.Error(err))
	}

	if _, err := execLookPath("notify-send"); err == nil {
		urgency := "normal"
		if kind == KindError {
			urgency = "critical"
		}
		err := execCommand("notify-send", "-a", d.appName, "-u", urgency, title, body).Run()
		if err == nil {
			return nil
		}
		d.logger.Debug("notify-send failed", zap.Error(err))
	}

	return d.writeStderr(kind, title, body)
}

// Notify fires a notify-send notification and does not wait for it.
func (d *Desktop) Notify(summary, body string) {
	if _, err := execLookPath("notify-send"); err != nil {
		d.writeStderr(KindInfo, summary, body)
		return
	}
	cmd := execCommand("notify-send", "-a", d.appName, summary, body)
	if err := cmd.Start(); err != nil {
		d.logger.Debug("notify-send failed", zap.Error(err))
		return
	}
	go cmd.Wait()
}

func (d *Desktop) writeStderr(kind Kind, title, body string) error {
	prefix := d.appName
	if kind == KindError {
		prefix += " error"
	}
	_, err := fmt.Fprintf(d.stderr, "%s: %s\n%s\n", prefix, title, body)
	return err
}
