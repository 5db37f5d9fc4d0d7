// Package permission checks that penc may observe the keyboard and drive
// window focus before the agent starts.
package permission

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ErrPermissionDenied means the window system refused the access penc
// needs. It is fatal at boot.
var ErrPermissionDenied = errors.New("accessibility permissions needed")

// Checker reports whether penc has the access it needs.
type Checker interface {
	IsTrusted() bool
	// PromptTrusted asks for access, or waits for it to appear, and
	// reports the final state.
	PromptTrusted(ctx context.Context) bool
}

// Probe is the window-system surface the X11 checker inspects.
type Probe interface {
	CanReadKeyboard() error
	SupportsActiveWindow() bool
}

// X11Checker trusts a display that answers keyboard queries and whose
// window manager advertises _NET_ACTIVE_WINDOW. At login the window
// manager may start after penc, so PromptTrusted polls for a while.
type X11Checker struct {
	probe    Probe
	clock    clockwork.Clock
	wait     time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// NewX11Checker returns a checker that waits up to wait in PromptTrusted.
func NewX11Checker(probe Probe, clock clockwork.Clock, wait time.Duration, logger *zap.Logger) *X11Checker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &X11Checker{
		probe:    probe,
		clock:    clock,
		wait:     wait,
		interval: 250 * time.Millisecond,
		logger:   logger,
	}
}

func (c *X11Checker) IsTrusted() bool {
	if err := c.probe.CanReadKeyboard(); err != nil {
		c.logger.Debug("keyboard state unavailable", zap.Error(err))
		return false
	}
	if !c.probe.SupportsActiveWindow() {
		c.logger.Debug("window manager does not advertise _NET_ACTIVE_WINDOW")
		return false
	}
	return true
}

func (c *X11Checker) PromptTrusted(ctx context.Context) bool {
	deadline := c.clock.Now().Add(c.wait)
	for {
		if c.IsTrusted() {
			return true
		}
		if !c.clock.Now().Before(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-c.clock.After(c.interval):
		}
	}
}

// Ensure returns nil when checker is trusted, prompting once if needed.
func Ensure(ctx context.Context, checker Checker, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if checker.IsTrusted() {
		return nil
	}
	logger.Info("waiting for accessibility access")
	if checker.PromptTrusted(ctx) {
		return nil
	}
	return ErrPermissionDenied
}
