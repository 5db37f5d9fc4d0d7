// Package daemon holds the agent-level state shared by the IPC server, the
// status menu and the display reconciler.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/1broseidon/penc/internal/coordinator"
	"github.com/1broseidon/penc/internal/ipc"
	"github.com/1broseidon/penc/internal/menu"
	"github.com/1broseidon/penc/internal/notify"
	"github.com/1broseidon/penc/internal/platform"
	"github.com/1broseidon/penc/internal/preferences"
	"github.com/1broseidon/penc/internal/updater"
)

// ErrNoFrontmostApp is returned when an app toggle has no target.
var ErrNoFrontmostApp = errors.New("no frontmost application")

// Frontmost reports the application owning the focused window.
type Frontmost interface {
	FrontmostApp() (platform.App, bool)
}

// UpdateChecker checks the release feed.
type UpdateChecker interface {
	CheckForUpdates(ctx context.Context) (updater.Result, error)
}

// Slot is the coordinator state the agent reports.
type Slot interface {
	Status() coordinator.Status
}

// AgentOptions configures an Agent.
type AgentOptions struct {
	Preferences *preferences.Store
	Slot        Slot
	Frontmost   Frontmost
	Updater     UpdateChecker
	Notifier    notify.Notifier
	// OpenPreferences shows the preferences editor.
	OpenPreferences func() error
	// Quit stops the agent.
	Quit    func()
	Version string
	Clock   clockwork.Clock
	Logger  *zap.Logger
}

// Agent implements ipc.AgentHandler. Its methods run on the run loop;
// dialogs and network checks are moved off it.
type Agent struct {
	prefs     *preferences.Store
	slot      Slot
	frontmost Frontmost
	updater   UpdateChecker
	notifier  notify.Notifier
	openPrefs func() error
	quit      func()
	version   string
	clock     clockwork.Clock
	logger    *zap.Logger

	started time.Time
	menu    *menu.Menu
	// async runs fn off the loop; tests replace it to run inline.
	async func(fn func())
}

// NewAgent builds an Agent.
func NewAgent(opts AgentOptions) *Agent {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Agent{
		prefs:     opts.Preferences,
		slot:      opts.Slot,
		frontmost: opts.Frontmost,
		updater:   opts.Updater,
		notifier:  opts.Notifier,
		openPrefs: opts.OpenPreferences,
		quit:      opts.Quit,
		version:   opts.Version,
		clock:     opts.Clock,
		logger:    opts.Logger,
		started:   opts.Clock.Now(),
		menu:      menu.New(),
		async:     func(fn func()) { go fn() },
	}
}

func (a *Agent) frontmostApp() (platform.App, bool) {
	if a.frontmost == nil {
		return platform.App{}, false
	}
	return a.frontmost.FrontmostApp()
}

// Status implements ipc.AgentHandler.
func (a *Agent) Status() ipc.StatusData {
	snap := a.prefs.Snapshot()
	data := ipc.StatusData{
		Disabled:      snap.Disabled,
		ModifierKey:   string(snap.ModifierKey),
		DisabledApps:  append([]string{}, snap.DisabledApps...),
		ConfigPath:    a.prefs.Path(),
		UptimeSeconds: int64(a.clock.Since(a.started).Seconds()),
		Version:       a.version,
	}
	if app, ok := a.frontmostApp(); ok {
		data.FrontmostApp = app.ID
		data.FrontmostAppName = app.Name
	}
	if a.slot != nil {
		st := a.slot.Status()
		data.Active = st.Active
		if st.Active {
			data.ActiveSeconds = a.clock.Since(st.Started).Seconds()
		}
		if st.Target != nil {
			data.Target = &ipc.WindowInfo{
				ID:     uint32(st.Target.ID),
				AppID:  st.Target.AppID,
				Title:  st.Target.Title,
				X:      st.Target.Bounds.X,
				Y:      st.Target.Bounds.Y,
				Width:  st.Target.Bounds.Width,
				Height: st.Target.Bounds.Height,
			}
		}
	}
	return data
}

// Reload re-reads the config file.
func (a *Agent) Reload() error {
	if err := a.prefs.Reload(); err != nil {
		a.logger.Warn("config reload failed", zap.Error(err))
		return err
	}
	a.logger.Info("config reloaded", zap.String("path", a.prefs.Path()))
	return nil
}

// ToggleDisabled flips the global disable flag.
func (a *Agent) ToggleDisabled() ipc.ToggleData {
	disabled := a.prefs.ToggleDisabled()
	a.logger.Info("global disable toggled", zap.Bool("disabled", disabled))
	return ipc.ToggleData{Disabled: disabled}
}

// ToggleAppDisabled flips appID, or the frontmost app when empty, in the
// disabled list.
func (a *Agent) ToggleAppDisabled(appID string) (ipc.ToggleData, error) {
	if appID == "" {
		app, ok := a.frontmostApp()
		if !ok {
			return ipc.ToggleData{}, ErrNoFrontmostApp
		}
		appID = app.ID
	}
	disabled, err := a.prefs.ToggleDisabledApp(appID)
	if err != nil {
		return ipc.ToggleData{}, err
	}
	a.logger.Info("app disable toggled", zap.String("app", appID), zap.Bool("disabled", disabled))
	return ipc.ToggleData{Disabled: disabled, AppID: appID}, nil
}

// menuState computes the labels' inputs for a menu opened over app.
func (a *Agent) menuState(app platform.App, ok bool) menu.State {
	st := menu.State{Disabled: a.prefs.Disabled()}
	if ok {
		st.AppName = app.Name
		if st.AppName == "" {
			st.AppName = app.ID
		}
		st.AppDisabled = a.prefs.Snapshot().IsAppDisabled(app.ID)
	}
	return st
}

// Menu returns the status menu as it looks when opened now.
func (a *Agent) Menu() *menu.Menu {
	app, ok := a.frontmostApp()
	a.menu.WillOpen(a.menuState(app, ok))
	out := &menu.Menu{Items: make([]menu.Item, len(a.menu.Items)), AppID: app.ID}
	copy(out.Items, a.menu.Items)
	return out
}

// MenuAction runs the item bound to action. appID names the app the menu
// was opened over; empty means whatever is frontmost now.
func (a *Agent) MenuAction(action, appID string) error {
	app, ok := platform.App{ID: appID}, appID != ""
	if !ok {
		app, ok = a.frontmostApp()
	} else if front, found := a.frontmostApp(); found && front.ID == appID {
		app = front
	}
	a.menu.WillOpen(a.menuState(app, ok))
	return a.menu.Dispatch(action, menuActions{a: a, appID: app.ID})
}

// menuActions adapts Agent to menu.Actions.
type menuActions struct {
	a     *Agent
	appID string
}

func (m menuActions) About() error {
	a := m.a
	body := fmt.Sprintf("Penc %s\nDouble-press or hold the activation key, then move or resize the focused window with the arrow keys or a two-finger swipe.", a.version)
	a.dialog(notify.KindInfo, "About Penc", body)
	return nil
}

func (m menuActions) CheckForUpdates() error {
	a := m.a
	if a.updater == nil {
		return fmt.Errorf("update checks are not configured")
	}
	a.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		res, err := a.updater.CheckForUpdates(ctx)
		if err != nil {
			a.logger.Warn("update check failed", zap.Error(err))
			a.showDialog(notify.KindError, "Check for updates", "Could not check for updates: "+err.Error())
			return
		}
		a.showDialog(notify.KindInfo, "Check for updates", res.Message())
	})
	return nil
}

func (m menuActions) ToggleDisabled() error {
	m.a.ToggleDisabled()
	return nil
}

func (m menuActions) ToggleAppDisabled() error {
	_, err := m.a.ToggleAppDisabled(m.appID)
	return err
}

func (m menuActions) Preferences() error {
	if m.a.openPrefs == nil {
		return fmt.Errorf("preferences editor unavailable")
	}
	return m.a.openPrefs()
}

func (m menuActions) Quit() error {
	if m.a.quit != nil {
		m.a.quit()
	}
	return nil
}

// dialog shows a dialog without blocking the caller.
func (a *Agent) dialog(kind notify.Kind, title, body string) {
	a.async(func() { a.showDialog(kind, title, body) })
}

func (a *Agent) showDialog(kind notify.Kind, title, body string) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.Dialog(kind, title, body); err != nil {
		a.logger.Debug("dialog failed", zap.Error(err))
	}
}
