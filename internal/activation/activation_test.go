package activation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/penc/internal/gesture"
	"github.com/1broseidon/penc/internal/keyboard"
	"github.com/1broseidon/penc/internal/overlay"
	"github.com/1broseidon/penc/internal/platform"
)

const (
	codeShift keyboard.Code = 50
	codeLeft  keyboard.Code = 113
	codeRight keyboard.Code = 114
	codeF     keyboard.Code = 41
	codeC     keyboard.Code = 54
	codeH     keyboard.Code = 43
)

var keymap = keyboard.StaticKeymap{
	Named: map[keyboard.Code]keyboard.Key{
		codeShift: keyboard.KeyShift,
		codeLeft:  keyboard.KeyLeft,
		codeRight: keyboard.KeyRight,
		codeF:     keyboard.KeyF,
		codeC:     keyboard.KeyC,
		codeH:     keyboard.KeyH,
	},
}

var screen = platform.Display{
	ID:     0,
	Bounds: platform.Rect{X: 0, Y: 0, Width: 2000, Height: 1000},
	Usable: platform.Rect{X: 0, Y: 0, Width: 2000, Height: 1000},
}

type fakeBackend struct {
	displays   []platform.Display
	underMouse *platform.Window
	moves      []platform.Rect
	moveErr    error
}

func (b *fakeBackend) Displays() ([]platform.Display, error) { return b.displays, nil }
func (b *fakeBackend) WindowAt(int, int) (*platform.Window, error) {
	return b.underMouse, nil
}
func (b *fakeBackend) PointerPosition() (int, int, error) { return 10, 10, nil }
func (b *fakeBackend) MoveResize(_ platform.WindowID, r platform.Rect) error {
	if b.moveErr != nil {
		return b.moveErr
	}
	b.moves = append(b.moves, r)
	return nil
}

type fakeOverlays struct {
	shown    bool
	attached overlay.Handler
	preview  platform.Rect
	showErr  error
}

func (o *fakeOverlays) Sync([]platform.Display) error { return nil }
func (o *fakeOverlays) Show(r platform.Rect) error {
	if o.showErr != nil {
		return o.showErr
	}
	o.shown = true
	o.preview = r
	return nil
}
func (o *fakeOverlays) Update(r platform.Rect)   { o.preview = r }
func (o *fakeOverlays) Hide()                    { o.shown = false }
func (o *fakeOverlays) Attach(h overlay.Handler) { o.attached = h }
func (o *fakeOverlays) Detach()                  { o.attached = nil }

func newDeps() (*fakeBackend, *fakeOverlays, Deps) {
	b := &fakeBackend{displays: []platform.Display{screen}}
	o := &fakeOverlays{}
	return b, o, Deps{Backend: b, Overlays: o, Keymap: keymap}
}

func window() *platform.Window {
	return &platform.Window{ID: 7, AppID: "Firefox", Title: "tab", Bounds: platform.Rect{X: 500, Y: 300, Width: 800, Height: 400}}
}

func keys(codes ...keyboard.Code) keyboard.KeySet {
	s := keyboard.KeySet{}
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

func TestNewUsesFocusedWindowAndShowsOverlays(t *testing.T) {
	_, o, deps := newDeps()
	a, err := New(window(), deps)
	require.NoError(t, err)

	assert.Equal(t, platform.WindowID(7), a.Target().ID)
	assert.True(t, o.shown)
	assert.Same(t, a, o.attached)
	assert.Equal(t, window().Bounds, o.preview)
}

func TestNewFallsBackToWindowUnderPointer(t *testing.T) {
	b, _, deps := newDeps()
	b.underMouse = &platform.Window{ID: 9, Bounds: platform.Rect{Width: 100, Height: 100}}

	a, err := New(nil, deps)
	require.NoError(t, err)
	assert.Equal(t, platform.WindowID(9), a.Target().ID)
}

func TestNewWithoutAnyWindowFails(t *testing.T) {
	_, o, deps := newDeps()
	_, err := New(nil, deps)
	assert.ErrorIs(t, err, ErrNoEligibleWindow)
	assert.False(t, o.shown)
}

func TestNewOverlayFailureDetaches(t *testing.T) {
	_, o, deps := newDeps()
	o.showErr = errors.New("no surfaces")

	_, err := New(window(), deps)
	assert.ErrorIs(t, err, ErrOverlaySetup)
	assert.Nil(t, o.attached)
}

func TestArrowMovesByOneTwentieth(t *testing.T) {
	_, o, deps := newDeps()
	a, err := New(window(), deps)
	require.NoError(t, err)

	a.OnKeyDown(keys(codeLeft))
	assert.Equal(t, platform.Rect{X: 400, Y: 300, Width: 800, Height: 400}, a.Preview())
	assert.Equal(t, a.Preview(), o.preview)
}

func TestShiftArrowResizes(t *testing.T) {
	_, _, deps := newDeps()
	a, err := New(window(), deps)
	require.NoError(t, err)

	a.OnKeyDown(keys(codeShift, codeRight))
	assert.Equal(t, platform.Rect{X: 500, Y: 300, Width: 900, Height: 400}, a.Preview())
}

func TestSnapKeys(t *testing.T) {
	_, _, deps := newDeps()
	a, err := New(window(), deps)
	require.NoError(t, err)

	a.OnKeyDown(keys(codeH))
	assert.Equal(t, platform.Rect{X: 0, Y: 0, Width: 1000, Height: 1000}, a.Preview())

	a.OnKeyDown(keys(codeF))
	assert.Equal(t, screen.Usable, a.Preview())

	a.OnKeyDown(keys(codeC))
	assert.Equal(t, screen.Usable, a.Preview(), "centering a full window is a no-op")
}

func TestSwipeSnapsThenFills(t *testing.T) {
	_, _, deps := newDeps()
	a, err := New(window(), deps)
	require.NoError(t, err)

	a.OnSwipe(screen, gesture.DirRight)
	assert.Equal(t, platform.Rect{X: 1000, Y: 0, Width: 1000, Height: 1000}, a.Preview())

	a.OnSwipe(screen, gesture.DirRight)
	assert.Equal(t, screen.Usable, a.Preview())
}

func TestScrollMovesAndClamps(t *testing.T) {
	_, _, deps := newDeps()
	a, err := New(window(), deps)
	require.NoError(t, err)

	a.OnScroll(screen, 30, -15)
	assert.Equal(t, platform.Rect{X: 530, Y: 285, Width: 800, Height: 400}, a.Preview())

	a.OnScroll(screen, 5000, 0)
	assert.Equal(t, 1200, a.Preview().X)
}

func TestCompleteAppliesChangedPreviewOnce(t *testing.T) {
	b, o, deps := newDeps()
	a, err := New(window(), deps)
	require.NoError(t, err)

	a.OnKeyDown(keys(codeF))
	require.NoError(t, a.Complete())
	require.NoError(t, a.Complete())

	assert.Equal(t, []platform.Rect{screen.Usable}, b.moves)
	assert.False(t, o.shown)
	assert.Nil(t, o.attached)
}

func TestCompleteUnchangedDoesNotMove(t *testing.T) {
	b, _, deps := newDeps()
	a, err := New(window(), deps)
	require.NoError(t, err)

	require.NoError(t, a.Complete())
	assert.Empty(t, b.moves)
}

func TestCompleteReportsMoveError(t *testing.T) {
	b, _, deps := newDeps()
	b.moveErr = errors.New("BadWindow")
	a, err := New(window(), deps)
	require.NoError(t, err)

	a.OnKeyDown(keys(codeF))
	assert.Error(t, a.Complete())
}

func TestAbortDiscardsPreview(t *testing.T) {
	b, o, deps := newDeps()
	a, err := New(window(), deps)
	require.NoError(t, err)

	a.OnKeyDown(keys(codeF))
	a.Abort()
	a.OnKeyDown(keys(codeLeft))

	assert.Empty(t, b.moves)
	assert.False(t, o.shown)
	require.NoError(t, a.Complete(), "complete after abort is a no-op")
	assert.Empty(t, b.moves)
}
