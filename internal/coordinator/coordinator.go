// Package coordinator owns the single activation slot. It receives gesture
// events from the keyboard listener, opens and resolves sessions, and
// restores focus to the window captured when the gesture started.
package coordinator

import (
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/1broseidon/penc/internal/activation"
	"github.com/1broseidon/penc/internal/keyboard"
	"github.com/1broseidon/penc/internal/metrics"
	"github.com/1broseidon/penc/internal/platform"
	"github.com/1broseidon/penc/internal/preferences"
)

// Desktop is the window-system surface the coordinator needs.
type Desktop interface {
	FocusedWindow() (*platform.Window, error)
	FocusOnly(windowID platform.WindowID) error
	Foreground() error
	ReleaseForeground()
	Beep()
}

// Session is a live activation.
type Session interface {
	OnKeyDown(keys keyboard.KeySet)
	Complete() error
	Abort()
	Target() platform.Window
}

// Factory opens a session for the captured window, which may be nil.
type Factory func(focused *platform.Window) (Session, error)

// Preferences supplies the settings snapshot.
type Preferences interface {
	Snapshot() preferences.Snapshot
}

// ListenerSettings is the reconfigurable part of the keyboard listener.
type ListenerSettings interface {
	SetActivationModifierKey(m keyboard.Modifier)
	SetSecondActivationModifierKeyPress(d time.Duration)
	SetHoldActivationModifierKeyTimeout(d time.Duration)
}

// OverlaySettings is the reconfigurable part of the overlay pool.
type OverlaySettings interface {
	Configure(threshold float64, reverse bool)
}

type slotKind int

const (
	slotIdle slotKind = iota
	slotActive
)

type session struct {
	activation Session
	// focused is the window to refocus afterwards; nil for the desktop.
	focused *platform.Window
	started time.Time
}

// slot is idle, or active with exactly one session.
type slot struct {
	kind    slotKind
	session session
}

// Options configures a Coordinator.
type Options struct {
	Desktop     Desktop
	NewSession  Factory
	Preferences Preferences
	Listener    ListenerSettings
	Overlays    OverlaySettings
	Clock       clockwork.Clock
	Metrics     *metrics.ActivationMetrics
	Logger      *zap.Logger
}

// Coordinator implements keyboard.Delegate and preferences.Delegate. Every
// method must run on the run loop.
type Coordinator struct {
	desktop    Desktop
	newSession Factory
	prefs      Preferences
	listener   ListenerSettings
	overlays   OverlaySettings
	clock      clockwork.Clock
	metrics    *metrics.ActivationMetrics
	logger     *zap.Logger

	slot slot
}

// New builds an idle coordinator.
func New(opts Options) *Coordinator {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewActivationMetrics(nil)
	}
	return &Coordinator{
		desktop:    opts.Desktop,
		newSession: opts.NewSession,
		prefs:      opts.Preferences,
		listener:   opts.Listener,
		overlays:   opts.Overlays,
		clock:      opts.Clock,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
}

// SetListener installs the listener reconfigured on preference changes.
// The listener and coordinator refer to each other, so one side is set
// after construction.
func (c *Coordinator) SetListener(l ListenerSettings) {
	c.listener = l
}

// Active reports whether a session is open.
func (c *Coordinator) Active() bool {
	return c.slot.kind == slotActive
}

// OnActivationStarted opens a session unless penc is disabled or no window
// can be targeted. Failures beep.
func (c *Coordinator) OnActivationStarted() {
	snap := c.prefs.Snapshot()
	if snap.Disabled {
		c.logger.Info("not activating, penc is disabled globally")
		c.metrics.Started.WithLabelValues(metrics.ResultDisabled).Inc()
		c.desktop.Beep()
		return
	}
	if c.Active() {
		c.logger.Warn("activation started while a session is open, ignoring")
		return
	}

	focused := c.captureFocused(snap)
	if focused != nil && snap.IsAppDisabled(focused.AppID) {
		c.logger.Info("not activating, penc is disabled for app", zap.String("app", focused.AppID))
		c.metrics.Started.WithLabelValues(metrics.ResultAppDisabled).Inc()
		c.desktop.Beep()
		return
	}

	act, err := c.newSession(focused)
	if err != nil {
		c.logger.Warn("could not start activation", zap.Error(err))
		c.metrics.Started.WithLabelValues(startResult(err)).Inc()
		c.desktop.Beep()
		return
	}

	c.slot = slot{kind: slotActive, session: session{
		activation: act,
		focused:    focused,
		started:    c.clock.Now(),
	}}
	c.metrics.Started.WithLabelValues(metrics.ResultStarted).Inc()
	c.metrics.ActiveSessions.Set(1)

	if err := c.desktop.Foreground(); err != nil {
		c.logger.Warn("could not take keyboard focus", zap.Error(err))
	}
}

// OnKeyDownWhileActivated forwards the pressed set to the session.
func (c *Coordinator) OnKeyDownWhileActivated(pressed keyboard.KeySet) {
	if !c.Active() {
		return
	}
	c.slot.session.activation.OnKeyDown(pressed)
}

// OnActivationCompleted commits the session.
func (c *Coordinator) OnActivationCompleted() {
	c.finish(true)
}

// OnActivationAborted rolls the session back.
func (c *Coordinator) OnActivationAborted() {
	c.finish(false)
}

// Close aborts any open session.
func (c *Coordinator) Close() {
	c.finish(false)
}

func (c *Coordinator) finish(commit bool) {
	s, ok := c.take()
	if !ok {
		return
	}

	outcome := metrics.OutcomeAborted
	if commit {
		outcome = metrics.OutcomeCompleted
		if err := s.activation.Complete(); err != nil {
			c.logger.Warn("could not apply window geometry", zap.Error(err))
			c.desktop.Beep()
		}
	} else {
		s.activation.Abort()
	}
	c.metrics.Finished.WithLabelValues(outcome).Inc()
	c.metrics.SessionDuration.Observe(c.clock.Since(s.started).Seconds())
	c.metrics.ActiveSessions.Set(0)

	c.desktop.ReleaseForeground()
	if s.focused == nil {
		return
	}
	if err := c.desktop.FocusOnly(s.focused.ID); err != nil {
		c.logger.Warn("could not restore focus",
			zap.Uint32("window", uint32(s.focused.ID)),
			zap.Error(err),
		)
	}
}

// take empties the slot and returns what it held.
func (c *Coordinator) take() (session, bool) {
	if c.slot.kind != slotActive {
		return session{}, false
	}
	s := c.slot.session
	c.slot = slot{}
	return s, true
}

// captureFocused returns the focused window, or nil for the desktop
// surface or when nothing is focused.
func (c *Coordinator) captureFocused(snap preferences.Snapshot) *platform.Window {
	w, err := c.desktop.FocusedWindow()
	if err != nil {
		c.logger.Debug("no focused window", zap.Error(err))
		return nil
	}
	if w == nil || w.IsDesktop {
		return nil
	}
	if w.Title == "" && (snap.IsDesktopApp(w.AppID) || snap.IsDesktopApp(w.AppName)) {
		return nil
	}
	return w
}

// OnPreferencesChanged pushes the current snapshot into the listener and
// overlay pool.
func (c *Coordinator) OnPreferencesChanged() {
	snap := c.prefs.Snapshot()
	if c.listener != nil {
		c.listener.SetActivationModifierKey(snap.ModifierKey)
		c.listener.SetSecondActivationModifierKeyPress(snap.Sensitivity)
		c.listener.SetHoldActivationModifierKeyTimeout(snap.HoldDuration)
	}
	if c.overlays != nil {
		c.overlays.Configure(snap.VelocityThreshold, snap.ReverseScroll)
	}
	c.metrics.PreferenceChanges.Inc()
	c.logger.Debug("preferences applied",
		zap.String("modifier", string(snap.ModifierKey)),
		zap.Duration("sensitivity", snap.Sensitivity),
		zap.Duration("hold", snap.HoldDuration),
		zap.Float64("velocity_threshold", snap.VelocityThreshold),
		zap.Bool("reverse_scroll", snap.ReverseScroll),
		zap.Bool("disabled", snap.Disabled),
	)
}

// Status describes the slot for IPC.
type Status struct {
	Active  bool
	Target  *platform.Window
	Started time.Time
}

// Status returns the current slot state.
func (c *Coordinator) Status() Status {
	if !c.Active() {
		return Status{}
	}
	target := c.slot.session.activation.Target()
	return Status{Active: true, Target: &target, Started: c.slot.session.started}
}

func startResult(err error) string {
	switch {
	case errors.Is(err, activation.ErrNoEligibleWindow):
		return metrics.ResultNoWindow
	case errors.Is(err, activation.ErrOverlaySetup):
		return metrics.ResultOverlayError
	default:
		return metrics.ResultError
	}
}

// ActivationFactory adapts activation.New to a Factory.
func ActivationFactory(deps activation.Deps) Factory {
	return func(focused *platform.Window) (Session, error) {
		a, err := activation.New(focused, deps)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}
