package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/keybind"
)

// CurrentDesktop returns the current virtual desktop number (0-indexed).
func (c *Connection) CurrentDesktop() (int, error) {
	desktop, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get current desktop: %w", err)
	}
	return int(desktop), nil
}

// WindowDesktop returns the desktop number a window is on, -1 for sticky
// windows.
func (c *Connection) WindowDesktop(windowID xproto.Window) (int, error) {
	desktop, err := ewmh.WmDesktopGet(c.XUtil, windowID)
	if err != nil {
		return 0, fmt.Errorf("failed to get window desktop: %w", err)
	}
	if desktop == 0xFFFFFFFF {
		return -1, nil
	}
	return int(desktop), nil
}

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
func (c *Connection) FocusWindow(windowID xproto.Window) error {
	const sourceIndication = 2 // pager/direct action
	if err := c.sendRootMessage(windowID, "_NET_ACTIVE_WINDOW", sourceIndication); err != nil {
		return err
	}
	return xproto.ConfigureWindowChecked(
		c.XUtil.Conn(),
		windowID,
		xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove},
	).Check()
}

// SupportsActiveWindow reports whether the window manager advertises
// _NET_ACTIVE_WINDOW in _NET_SUPPORTED.
func (c *Connection) SupportsActiveWindow() bool {
	supported, err := ewmh.SupportedGet(c.XUtil)
	if err != nil {
		return false
	}
	for _, atom := range supported {
		if atom == "_NET_ACTIVE_WINDOW" {
			return true
		}
	}
	return false
}

// Bell rings the X bell at the base volume.
func (c *Connection) Bell() {
	xproto.Bell(c.XUtil.Conn(), 0)
}

// GrabKeyboard routes all keyboard input to penc until UngrabKeyboard.
func (c *Connection) GrabKeyboard() error {
	return keybind.GrabKeyboard(c.XUtil, c.Root)
}

// UngrabKeyboard releases a GrabKeyboard.
func (c *Connection) UngrabKeyboard() {
	keybind.UngrabKeyboard(c.XUtil)
}

// CanReadKeyboard reports whether the server answers keyboard state
// queries for this client.
func (c *Connection) CanReadKeyboard() error {
	if _, err := xproto.QueryKeymap(c.XUtil.Conn()).Reply(); err != nil {
		return fmt.Errorf("query keymap: %w", err)
	}
	return nil
}
