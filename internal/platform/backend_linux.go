//go:build linux

package platform

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/1broseidon/penc/internal/x11"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn    *x11.Connection
	grabbed bool
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay() (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Connection exposes the X11 connection for overlay surfaces.
func (b *LinuxBackend) Connection() *x11.Connection {
	return b.conn
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Displays returns all active displays.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	monitors, err := conn.Monitors()
	if err != nil {
		return nil, err
	}
	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, displayFromMonitor(m))
	}
	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})
	return displays, nil
}

// ActiveDisplay returns the currently active display.
func (b *LinuxBackend) ActiveDisplay() (Display, error) {
	conn, err := b.connection()
	if err != nil {
		return Display{}, err
	}
	m, err := conn.ActiveMonitor()
	if err != nil {
		return Display{}, err
	}
	return displayFromMonitor(m), nil
}

// FocusedWindow returns the window named by _NET_ACTIVE_WINDOW.
func (b *LinuxBackend) FocusedWindow() (*Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	wid, err := conn.ActiveWindow()
	if err != nil {
		return nil, fmt.Errorf("read active window: %w", err)
	}
	if wid == 0 || wid == conn.Root {
		return nil, nil
	}
	return b.describe(wid), nil
}

// WindowAt returns the topmost normal window under the point.
func (b *LinuxBackend) WindowAt(x, y int) (*Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	wid, ok := conn.TopWindowAt(x, y)
	if !ok {
		return nil, nil
	}
	return b.describe(wid), nil
}

// PointerPosition returns the pointer location in root coordinates.
func (b *LinuxBackend) PointerPosition() (int, int, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, 0, err
	}
	return conn.PointerPosition()
}

// MoveResize moves and resizes a window to the specified bounds.
func (b *LinuxBackend) MoveResize(windowID WindowID, bounds Rect) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.MoveResizeWindow(xproto.Window(windowID), bounds.X, bounds.Y, bounds.Width, bounds.Height)
}

// FocusOnly activates and raises one window.
func (b *LinuxBackend) FocusOnly(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.FocusWindow(xproto.Window(windowID))
}

// FrontmostApp returns the application owning the focused window.
func (b *LinuxBackend) FrontmostApp() (App, bool) {
	w, err := b.FocusedWindow()
	if err != nil || w == nil || w.AppID == "" {
		return App{}, false
	}
	return w.App(), true
}

// Beep rings the X bell.
func (b *LinuxBackend) Beep() {
	if conn, err := b.connection(); err == nil {
		conn.Bell()
	}
}

// Foreground grabs the keyboard for the duration of a session.
func (b *LinuxBackend) Foreground() error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	if b.grabbed {
		return nil
	}
	if err := conn.GrabKeyboard(); err != nil {
		return fmt.Errorf("grab keyboard: %w", err)
	}
	b.grabbed = true
	return nil
}

// ReleaseForeground undoes Foreground.
func (b *LinuxBackend) ReleaseForeground() {
	if !b.grabbed {
		return
	}
	if conn, err := b.connection(); err == nil {
		conn.UngrabKeyboard()
	}
	b.grabbed = false
}

func (b *LinuxBackend) describe(wid xproto.Window) *Window {
	info, ok := b.conn.Describe(wid)
	if !ok {
		return &Window{ID: WindowID(wid)}
	}
	name := info.Class
	if name == "" {
		name = info.Instance
	}
	return &Window{
		ID:        WindowID(info.ID),
		PID:       info.PID,
		AppID:     info.Class,
		AppName:   name,
		Title:     info.Title,
		Bounds:    Rect{X: info.X, Y: info.Y, Width: info.Width, Height: info.Height},
		IsDesktop: info.Desktop,
	}
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func displayFromMonitor(m x11.Monitor) Display {
	return Display{
		ID:     m.ID,
		Name:   m.Name,
		Bounds: Rect{X: m.Bounds.X, Y: m.Bounds.Y, Width: m.Bounds.Width, Height: m.Bounds.Height},
		Usable: Rect{X: m.Usable.X, Y: m.Usable.Y, Width: m.Usable.Width, Height: m.Usable.Height},
	}
}
