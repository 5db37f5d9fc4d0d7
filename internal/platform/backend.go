package platform

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Center returns the center point of r.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Display describes a physical display and its usable work area.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
	Usable Rect
}

// App identifies the application owning a window.
type App struct {
	ID   string
	Name string
	PID  int
}

// Window contains metadata and geometry for a top-level window.
type Window struct {
	ID      WindowID
	PID     int
	AppID   string
	AppName string
	Title   string
	Bounds  Rect
	// IsDesktop is set for windows typed _NET_WM_WINDOW_TYPE_DESKTOP.
	IsDesktop bool
}

// App returns the owning application of w.
func (w *Window) App() App {
	return App{ID: w.AppID, Name: w.AppName, PID: w.PID}
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	Displays() ([]Display, error)
	ActiveDisplay() (Display, error)
	// FocusedWindow returns the focused top-level window, or nil when
	// nothing has focus.
	FocusedWindow() (*Window, error)
	// WindowAt returns the topmost normal window containing the point, or
	// nil.
	WindowAt(x, y int) (*Window, error)
	PointerPosition() (int, int, error)
	MoveResize(windowID WindowID, bounds Rect) error
	// FocusOnly activates and raises a single window.
	FocusOnly(windowID WindowID) error
	FrontmostApp() (App, bool)
	Beep()
	// Foreground takes exclusive keyboard input for penc while a session
	// is live. ReleaseForeground gives it back.
	Foreground() error
	ReleaseForeground()
}

// DisplayFor returns the display containing the center of r, falling back
// to the first display.
func DisplayFor(displays []Display, r Rect) (Display, bool) {
	if len(displays) == 0 {
		return Display{}, false
	}
	cx, cy := r.Center()
	for _, d := range displays {
		if d.Bounds.Contains(cx, cy) {
			return d, true
		}
	}
	return displays[0], true
}
