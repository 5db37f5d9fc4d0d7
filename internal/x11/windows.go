package x11

import (
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WindowInfo is the metadata penc needs about a top-level client.
type WindowInfo struct {
	ID       xproto.Window
	PID      int
	Class    string
	Instance string
	Title    string
	X, Y     int
	Width    int
	Height   int
	Desktop  bool
}

// MoveResizeWindow moves and resizes a window to the specified geometry
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	// Maximized windows ignore geometry requests on most window managers.
	c.unmaximizeWindow(windowID)

	if err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height); err != nil {
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, width, height)
	}
	return nil
}

func (c *Connection) unmaximizeWindow(windowID xproto.Window) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return
	}
	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT":
			ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, state)
		}
	}
}

// ActiveWindow returns _NET_ACTIVE_WINDOW, zero when nothing has focus.
func (c *Connection) ActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// Describe collects class, title, pid and root-relative geometry.
func (c *Connection) Describe(windowID xproto.Window) (WindowInfo, bool) {
	x, y, w, h, ok := c.windowGeometry(windowID)
	if !ok {
		return WindowInfo{}, false
	}
	info := WindowInfo{
		ID:      windowID,
		Title:   c.windowTitle(windowID),
		X:       x,
		Y:       y,
		Width:   w,
		Height:  h,
		Desktop: c.hasWindowType(windowID, "_NET_WM_WINDOW_TYPE_DESKTOP"),
	}
	if wmClass, err := icccm.WmClassGet(c.XUtil, windowID); err == nil {
		info.Class = strings.TrimSpace(wmClass.Class)
		info.Instance = strings.TrimSpace(wmClass.Instance)
	}
	if pid, err := ewmh.WmPidGet(c.XUtil, windowID); err == nil {
		info.PID = int(pid)
	}
	return info, true
}

// TopWindowAt walks the stacking order from the top and returns the first
// visible normal client on the current desktop containing the point.
func (c *Connection) TopWindowAt(x, y int) (xproto.Window, bool) {
	clients, err := ewmh.ClientListStackingGet(c.XUtil)
	if err != nil {
		clients, err = ewmh.ClientListGet(c.XUtil)
		if err != nil {
			return 0, false
		}
	}
	current, desktopErr := c.CurrentDesktop()

	for i := len(clients) - 1; i >= 0; i-- {
		win := clients[i]
		if !c.IsNormalWindow(win) || c.isHidden(win) {
			continue
		}
		if desktopErr == nil {
			if d, err := c.WindowDesktop(win); err == nil && d >= 0 && d != current {
				continue
			}
		}
		wx, wy, ww, wh, ok := c.windowGeometry(win)
		if !ok {
			continue
		}
		if x >= wx && x < wx+ww && y >= wy && y < wy+wh {
			return win, true
		}
	}
	return 0, false
}

// PointerPosition returns the pointer location in root coordinates.
func (c *Connection) PointerPosition() (int, int, error) {
	reply, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, err
	}
	return int(reply.RootX), int(reply.RootY), nil
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return true
	}
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL", "_NET_WM_WINDOW_TYPE_DIALOG", "_NET_WM_WINDOW_TYPE_UTILITY":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return false
		}
	}
	return len(types) == 0
}

func (c *Connection) hasWindowType(windowID xproto.Window, want string) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

func (c *Connection) isHidden(windowID xproto.Window) bool {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_HIDDEN" {
			return true
		}
	}
	return false
}

func (c *Connection) windowGeometry(windowID xproto.Window) (x, y, w, h int, ok bool) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return 0, 0, 0, 0, false
	}
	translate, err := xproto.TranslateCoordinates(c.XUtil.Conn(), windowID, c.Root, 0, 0).Reply()
	if err != nil {
		return 0, 0, 0, 0, false
	}
	return int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height), true
}

func (c *Connection) windowTitle(windowID xproto.Window) string {
	if title, err := ewmh.WmNameGet(c.XUtil, windowID); err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	if title, err := icccm.WmNameGet(c.XUtil, windowID); err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}
