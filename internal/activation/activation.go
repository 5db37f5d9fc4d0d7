// Package activation implements one window-repositioning session. The
// session edits a preview rectangle; nothing touches the real window until
// Complete.
package activation

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/1broseidon/penc/internal/gesture"
	"github.com/1broseidon/penc/internal/keyboard"
	"github.com/1broseidon/penc/internal/overlay"
	"github.com/1broseidon/penc/internal/platform"
)

var (
	// ErrNoEligibleWindow means neither the focused window nor the window
	// under the pointer can be repositioned.
	ErrNoEligibleWindow = errors.New("no eligible window")
	// ErrOverlaySetup means the overlays could not be shown.
	ErrOverlaySetup = errors.New("overlay setup failed")
)

// Backend is the window-system surface a session needs.
type Backend interface {
	Displays() ([]platform.Display, error)
	WindowAt(x, y int) (*platform.Window, error)
	PointerPosition() (int, int, error)
	MoveResize(windowID platform.WindowID, bounds platform.Rect) error
}

// Overlays is the part of the overlay pool a session drives.
type Overlays interface {
	Sync(displays []platform.Display) error
	Show(preview platform.Rect) error
	Update(preview platform.Rect)
	Hide()
	Attach(h overlay.Handler)
	Detach()
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Backend  Backend
	Overlays Overlays
	Keymap   keyboard.Keymap
	Logger   *zap.Logger
}

// Activation is a live session.
type Activation struct {
	backend  Backend
	overlays Overlays
	keymap   keyboard.Keymap
	logger   *zap.Logger

	target    platform.Window
	original  platform.Rect
	preview   platform.Rect
	displays  []platform.Display
	lastSwipe gesture.Direction
	done      bool
}

// New opens a session for focused, or for the window under the pointer
// when focused is nil.
func New(focused *platform.Window, deps Deps) (*Activation, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	target, err := resolveTarget(focused, deps.Backend)
	if err != nil {
		return nil, err
	}

	displays, err := deps.Backend.Displays()
	if err != nil {
		return nil, fmt.Errorf("%w: list displays: %v", ErrOverlaySetup, err)
	}
	if len(displays) == 0 {
		return nil, fmt.Errorf("%w: no displays", ErrOverlaySetup)
	}
	if err := deps.Overlays.Sync(displays); err != nil {
		logger.Warn("some overlays could not be created", zap.Error(err))
	}

	a := &Activation{
		backend:  deps.Backend,
		overlays: deps.Overlays,
		keymap:   deps.Keymap,
		logger:   logger,
		target:   *target,
		original: target.Bounds,
		preview:  target.Bounds,
		displays: displays,
	}

	deps.Overlays.Attach(a)
	if err := deps.Overlays.Show(a.preview); err != nil {
		deps.Overlays.Detach()
		return nil, fmt.Errorf("%w: %v", ErrOverlaySetup, err)
	}

	logger.Debug("activation opened",
		zap.Uint32("window", uint32(target.ID)),
		zap.String("app", target.AppID),
		zap.String("title", target.Title),
	)
	return a, nil
}

func resolveTarget(focused *platform.Window, backend Backend) (*platform.Window, error) {
	if focused != nil && !focused.Bounds.Empty() {
		return focused, nil
	}
	x, y, err := backend.PointerPosition()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoEligibleWindow, err)
	}
	w, err := backend.WindowAt(x, y)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoEligibleWindow, err)
	}
	if w == nil || w.Bounds.Empty() {
		return nil, ErrNoEligibleWindow
	}
	return w, nil
}

// Target returns the window being repositioned.
func (a *Activation) Target() platform.Window {
	return a.target
}

// Preview returns the geometry Complete would apply.
func (a *Activation) Preview() platform.Rect {
	return a.preview
}

// OnKeyDown applies every action key in the pressed set. Snaps apply
// before nudges.
func (a *Activation) OnKeyDown(keys keyboard.KeySet) {
	if a.done || a.keymap == nil {
		return
	}
	named := keys.Keys(a.keymap)
	area := a.area()
	bounds := UnionBounds(a.displays)
	next := a.preview

	switch {
	case named[keyboard.KeyF]:
		next = ApplyRegion(area, RegionFull)
	case named[keyboard.KeyC]:
		next = CenterIn(area, next)
	case named[keyboard.KeyH]:
		next = ApplyRegion(area, RegionLeftHalf)
	case named[keyboard.KeyL]:
		next = ApplyRegion(area, RegionRightHalf)
	case named[keyboard.KeyK]:
		next = ApplyRegion(area, RegionTopHalf)
	case named[keyboard.KeyJ]:
		next = ApplyRegion(area, RegionBottomHalf)
	}

	sx, sy := Step(area)
	dx, dy := 0, 0
	if named[keyboard.KeyLeft] {
		dx -= sx
	}
	if named[keyboard.KeyRight] {
		dx += sx
	}
	if named[keyboard.KeyUp] {
		dy -= sy
	}
	if named[keyboard.KeyDown] {
		dy += sy
	}
	if dx != 0 || dy != 0 {
		if named[keyboard.KeyShift] {
			next = Grow(bounds, next, dx, dy)
		} else {
			next = Translate(bounds, next, dx, dy)
		}
	}

	a.setPreview(next)
}

// OnScroll implements overlay.Handler.
func (a *Activation) OnScroll(_ platform.Display, dx, dy float64) {
	if a.done {
		return
	}
	a.setPreview(Translate(UnionBounds(a.displays), a.preview, int(dx), int(dy)))
}

// OnSwipe implements overlay.Handler. The first swipe in a direction snaps
// to that half; a second swipe the same way fills the display.
func (a *Activation) OnSwipe(display platform.Display, dir gesture.Direction) {
	if a.done {
		return
	}
	area := display.Usable
	if area.Empty() {
		area = display.Bounds
	}
	if dir == a.lastSwipe {
		a.lastSwipe = gesture.DirNone
		a.setPreview(ApplyRegion(area, RegionFull))
		return
	}
	a.lastSwipe = dir
	a.setPreview(ApplyRegion(area, regionFor(dir)))
}

// Complete applies the preview and closes the session.
func (a *Activation) Complete() error {
	if a.done {
		return nil
	}
	a.close()
	if a.preview == a.original {
		return nil
	}
	if err := a.backend.MoveResize(a.target.ID, a.preview); err != nil {
		return fmt.Errorf("move window %d: %w", a.target.ID, err)
	}
	a.logger.Debug("window repositioned",
		zap.Uint32("window", uint32(a.target.ID)),
		zap.Int("x", a.preview.X), zap.Int("y", a.preview.Y),
		zap.Int("width", a.preview.Width), zap.Int("height", a.preview.Height),
	)
	return nil
}

// Abort discards the preview and closes the session.
func (a *Activation) Abort() {
	if a.done {
		return
	}
	a.close()
}

func (a *Activation) close() {
	a.done = true
	a.overlays.Hide()
	a.overlays.Detach()
}

func (a *Activation) setPreview(r platform.Rect) {
	if r == a.preview {
		return
	}
	a.preview = r
	a.overlays.Update(r)
}

// area is the usable area of the display holding the preview center.
func (a *Activation) area() platform.Rect {
	d, ok := platform.DisplayFor(a.displays, a.preview)
	if !ok {
		return a.preview
	}
	if d.Usable.Empty() {
		return d.Bounds
	}
	return d.Usable
}

func regionFor(dir gesture.Direction) Region {
	switch dir {
	case gesture.DirLeft:
		return RegionLeftHalf
	case gesture.DirRight:
		return RegionRightHalf
	case gesture.DirUp:
		return RegionTopHalf
	case gesture.DirDown:
		return RegionBottomHalf
	default:
		return RegionFull
	}
}
