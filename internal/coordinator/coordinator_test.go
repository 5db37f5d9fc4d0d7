package coordinator

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/penc/internal/activation"
	"github.com/1broseidon/penc/internal/config"
	"github.com/1broseidon/penc/internal/keyboard"
	"github.com/1broseidon/penc/internal/metrics"
	"github.com/1broseidon/penc/internal/platform"
	"github.com/1broseidon/penc/internal/preferences"
	"github.com/1broseidon/penc/internal/runloop"
)

type fakeDesktop struct {
	focused    *platform.Window
	focusErr   error
	beeps      int
	grabbed    bool
	grabs      int
	releases   int
	focusCalls []platform.WindowID
}

func (d *fakeDesktop) FocusedWindow() (*platform.Window, error) { return d.focused, d.focusErr }
func (d *fakeDesktop) FocusOnly(id platform.WindowID) error {
	d.focusCalls = append(d.focusCalls, id)
	return nil
}
func (d *fakeDesktop) Foreground() error {
	d.grabbed = true
	d.grabs++
	return nil
}
func (d *fakeDesktop) ReleaseForeground() {
	d.grabbed = false
	d.releases++
}
func (d *fakeDesktop) Beep() { d.beeps++ }

type fakeSession struct {
	target    platform.Window
	keys      []keyboard.KeySet
	completed int
	aborted   int
	err       error
}

func (s *fakeSession) OnKeyDown(keys keyboard.KeySet) { s.keys = append(s.keys, keys) }
func (s *fakeSession) Complete() error {
	s.completed++
	return s.err
}
func (s *fakeSession) Abort()                  { s.aborted++ }
func (s *fakeSession) Target() platform.Window { return s.target }

type fakeListener struct {
	modifier    keyboard.Modifier
	sensitivity time.Duration
	hold        time.Duration
}

func (l *fakeListener) SetActivationModifierKey(m keyboard.Modifier)        { l.modifier = m }
func (l *fakeListener) SetSecondActivationModifierKeyPress(d time.Duration) { l.sensitivity = d }
func (l *fakeListener) SetHoldActivationModifierKeyTimeout(d time.Duration) { l.hold = d }

type fakeOverlays struct {
	threshold float64
	reverse   bool
	calls     int
}

func (o *fakeOverlays) Configure(threshold float64, reverse bool) {
	o.threshold = threshold
	o.reverse = reverse
	o.calls++
}

type harness struct {
	c        *Coordinator
	desktop  *fakeDesktop
	prefs    *preferences.Store
	listener *fakeListener
	overlays *fakeOverlays
	metrics  *metrics.ActivationMetrics
	clock    *clockwork.FakeClock
	sessions []*fakeSession
	captured []*platform.Window
	newErr   error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		desktop: &fakeDesktop{focused: &platform.Window{
			ID: 42, AppID: "Gedit", AppName: "gedit", Title: "notes.txt",
			Bounds: platform.Rect{X: 10, Y: 10, Width: 400, Height: 300},
		}},
		prefs:    preferences.NewMemoryStore(config.DefaultConfig(), nil),
		listener: &fakeListener{},
		overlays: &fakeOverlays{},
		metrics:  metrics.NewActivationMetrics(nil),
		clock:    clockwork.NewFakeClock(),
	}
	h.c = New(Options{
		Desktop: h.desktop,
		NewSession: func(focused *platform.Window) (Session, error) {
			h.captured = append(h.captured, focused)
			if h.newErr != nil {
				return nil, h.newErr
			}
			s := &fakeSession{}
			if focused != nil {
				s.target = *focused
			}
			h.sessions = append(h.sessions, s)
			return s, nil
		},
		Preferences: h.prefs,
		Listener:    h.listener,
		Overlays:    h.overlays,
		Clock:       h.clock,
		Metrics:     h.metrics,
	})
	h.prefs.SetDelegate(h.c)
	return h
}

func TestStartCompleteRestoresCapturedFocus(t *testing.T) {
	h := newHarness(t)

	h.c.OnActivationStarted()
	require.True(t, h.c.Active())
	require.Len(t, h.sessions, 1)
	assert.True(t, h.desktop.grabbed)

	// Focus moves elsewhere mid-session; restoration still targets 42.
	h.desktop.focused = &platform.Window{ID: 99, Title: "other"}
	h.clock.Advance(2 * time.Second)
	h.c.OnActivationCompleted()

	assert.False(t, h.c.Active())
	assert.Equal(t, 1, h.sessions[0].completed)
	assert.Equal(t, 0, h.sessions[0].aborted)
	assert.Equal(t, []platform.WindowID{42}, h.desktop.focusCalls)
	assert.False(t, h.desktop.grabbed)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Finished.WithLabelValues(metrics.OutcomeCompleted)))
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.ActiveSessions))
}

func TestAbortRestoresCapturedFocus(t *testing.T) {
	h := newHarness(t)

	h.c.OnActivationStarted()
	h.c.OnActivationAborted()

	assert.False(t, h.c.Active())
	assert.Equal(t, 1, h.sessions[0].aborted)
	assert.Equal(t, 0, h.sessions[0].completed)
	assert.Equal(t, []platform.WindowID{42}, h.desktop.focusCalls)
}

func TestAtMostOneSession(t *testing.T) {
	h := newHarness(t)

	h.c.OnActivationStarted()
	h.c.OnActivationStarted()

	assert.Len(t, h.sessions, 1)
	assert.Equal(t, 1, h.desktop.grabs)

	h.c.OnActivationCompleted()
	h.c.OnActivationStarted()
	assert.Len(t, h.sessions, 2)
	assert.True(t, h.c.Active())
}

func TestFinishWithoutSessionIsNoop(t *testing.T) {
	h := newHarness(t)

	h.c.OnActivationCompleted()
	h.c.OnActivationAborted()
	h.c.OnKeyDownWhileActivated(keyboard.KeySet{1: {}})
	h.c.Close()

	assert.False(t, h.c.Active())
	assert.Empty(t, h.desktop.focusCalls)
	assert.Equal(t, 0, h.desktop.releases)
	assert.Equal(t, 0, h.desktop.beeps)
}

func TestAbortAfterCompleteIsNoop(t *testing.T) {
	h := newHarness(t)

	h.c.OnActivationStarted()
	h.c.OnActivationCompleted()
	h.c.OnActivationAborted()

	assert.Equal(t, 1, h.sessions[0].completed)
	assert.Equal(t, 0, h.sessions[0].aborted)
	assert.Len(t, h.desktop.focusCalls, 1)
}

func TestGloballyDisabledOnlyBeeps(t *testing.T) {
	h := newHarness(t)
	h.prefs.SetDisabled(true)

	h.c.OnActivationStarted()

	assert.False(t, h.c.Active())
	assert.Empty(t, h.captured, "no session construction attempted")
	assert.Equal(t, 1, h.desktop.beeps)
	assert.False(t, h.desktop.grabbed)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Started.WithLabelValues(metrics.ResultDisabled)))

	h.prefs.SetDisabled(false)
	h.c.OnActivationStarted()
	assert.True(t, h.c.Active())
}

func TestDisabledAppOnlyBeeps(t *testing.T) {
	h := newHarness(t)
	_, err := h.prefs.ToggleDisabledApp("Gedit")
	require.NoError(t, err)

	h.c.OnActivationStarted()

	assert.False(t, h.c.Active())
	assert.Empty(t, h.captured)
	assert.Equal(t, 1, h.desktop.beeps)
}

func TestUntitledDesktopWindowIsAbsent(t *testing.T) {
	cases := []*platform.Window{
		{ID: 7, AppID: "Finder", AppName: "Finder"},
		{ID: 8, AppID: "caja", AppName: "Caja"},
		{ID: 9, AppID: "anything", Title: "Desktop", IsDesktop: true},
	}
	for _, w := range cases {
		t.Run(fmt.Sprintf("window-%d", w.ID), func(t *testing.T) {
			h := newHarness(t)
			h.desktop.focused = w

			h.c.OnActivationStarted()
			require.True(t, h.c.Active())
			require.Len(t, h.captured, 1)
			assert.Nil(t, h.captured[0])

			h.c.OnActivationCompleted()
			assert.Empty(t, h.desktop.focusCalls, "nothing to refocus")
			assert.Equal(t, 1, h.desktop.releases)
		})
	}
}

func TestTitledFileManagerWindowIsKept(t *testing.T) {
	h := newHarness(t)
	h.desktop.focused = &platform.Window{ID: 5, AppID: "Finder", Title: "Documents"}

	h.c.OnActivationStarted()
	require.Len(t, h.captured, 1)
	require.NotNil(t, h.captured[0])
	assert.Equal(t, platform.WindowID(5), h.captured[0].ID)
}

func TestFocusErrorFallsBackToNil(t *testing.T) {
	h := newHarness(t)
	h.desktop.focused = nil
	h.desktop.focusErr = errors.New("no _NET_ACTIVE_WINDOW")

	h.c.OnActivationStarted()
	require.Len(t, h.captured, 1)
	assert.Nil(t, h.captured[0])
}

func TestConstructionFailureBeepsWithoutSession(t *testing.T) {
	h := newHarness(t)
	h.newErr = fmt.Errorf("open: %w", activation.ErrNoEligibleWindow)

	h.c.OnActivationStarted()

	assert.False(t, h.c.Active())
	assert.Equal(t, 1, h.desktop.beeps)
	assert.False(t, h.desktop.grabbed)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Started.WithLabelValues(metrics.ResultNoWindow)))

	h.c.OnActivationCompleted()
	assert.Empty(t, h.desktop.focusCalls)
}

func TestCompleteErrorBeepsAndStillRestores(t *testing.T) {
	h := newHarness(t)
	h.c.OnActivationStarted()
	h.sessions[0].err = errors.New("BadWindow")

	h.c.OnActivationCompleted()

	assert.Equal(t, 1, h.desktop.beeps)
	assert.Equal(t, []platform.WindowID{42}, h.desktop.focusCalls)
	assert.False(t, h.c.Active())
}

func TestKeyDownForwardsPressedSet(t *testing.T) {
	h := newHarness(t)
	h.c.OnActivationStarted()

	keys := keyboard.KeySet{113: {}, 50: {}}
	h.c.OnKeyDownWhileActivated(keys)

	require.Len(t, h.sessions[0].keys, 1)
	assert.Equal(t, keys, h.sessions[0].keys[0])
}

func TestPreferencesChangedReconfigures(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.prefs.SetActivationModifierKey("alt"))
	require.NoError(t, h.prefs.SetHoldDuration(0.25))
	require.NoError(t, h.prefs.SetSwipeDetectionVelocityThreshold(800))
	require.NoError(t, h.prefs.SetReverseScroll(true))

	assert.Equal(t, keyboard.ModAlt, h.listener.modifier)
	assert.Equal(t, 300*time.Millisecond, h.listener.sensitivity)
	assert.Equal(t, 250*time.Millisecond, h.listener.hold)
	assert.Equal(t, 800.0, h.overlays.threshold)
	assert.True(t, h.overlays.reverse)
	assert.Equal(t, 4, h.overlays.calls)
	assert.Equal(t, 4.0, testutil.ToFloat64(h.metrics.PreferenceChanges))
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.c.Status().Active)

	h.c.OnActivationStarted()
	st := h.c.Status()
	require.True(t, st.Active)
	require.NotNil(t, st.Target)
	assert.Equal(t, platform.WindowID(42), st.Target.ID)
	assert.Equal(t, h.clock.Now(), st.Started)
}

func TestListenerDrivesCoordinator(t *testing.T) {
	const (
		superL keyboard.Code = 133
		escape keyboard.Code = 9
		left   keyboard.Code = 113
	)
	km := keyboard.StaticKeymap{
		Modifiers: map[keyboard.Modifier][]keyboard.Code{keyboard.ModSuper: {superL}},
		Named:     map[keyboard.Code]keyboard.Key{escape: keyboard.KeyEscape, left: keyboard.KeyLeft},
	}
	h := newHarness(t)
	loop := runloop.New(16, nil)
	l := keyboard.NewListener(h.clock, loop, km, h.c, nil)
	h.c.SetListener(l)
	h.c.OnPreferencesChanged()

	send := func(code keyboard.Code, down bool) {
		l.HandleEvent(keyboard.Event{Code: code, Down: down, At: h.clock.Now()})
	}
	send(superL, true)
	send(superL, false)
	h.clock.Advance(100 * time.Millisecond)
	send(superL, true)
	require.True(t, h.c.Active())

	send(left, true)
	send(left, false)
	require.Len(t, h.sessions[0].keys, 1)

	send(escape, true)
	assert.False(t, h.c.Active())
	assert.Equal(t, 1, h.sessions[0].aborted)
	assert.Equal(t, []platform.WindowID{42}, h.desktop.focusCalls)
	assert.Equal(t, keyboard.StateIdle, l.State())
}
