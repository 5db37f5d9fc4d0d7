package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor represents a physical display. Usable excludes dock struts.
type Monitor struct {
	ID     int
	Name   string
	Bounds Area
	Usable Area
}

// Area is a root-relative rectangle.
type Area struct {
	X, Y          int
	Width, Height int
}

func (a Area) contains(x, y int) bool {
	return x >= a.X && x < a.X+a.Width && y >= a.Y && y < a.Y+a.Height
}

// Monitors retrieves all active monitors using XRandR.
func (c *Connection) Monitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	struts := c.dockStruts()

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(c.XUtil.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		bounds := Area{X: int(info.X), Y: int(info.Y), Width: int(info.Width), Height: int(info.Height)}
		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   name,
			Bounds: bounds,
			Usable: struts.apply(bounds),
		})
	}

	if len(monitors) == 0 {
		// No RandR outputs (nested servers, Xvfb): fall back to the screen.
		screen := c.XUtil.Screen()
		bounds := Area{Width: int(screen.WidthInPixels), Height: int(screen.HeightInPixels)}
		monitors = append(monitors, Monitor{Name: "screen", Bounds: bounds, Usable: struts.apply(bounds)})
	}
	return monitors, nil
}

// ActiveMonitor returns the monitor holding the focused window, else the
// one under the pointer, else the first.
func (c *Connection) ActiveMonitor() (Monitor, error) {
	monitors, err := c.Monitors()
	if err != nil {
		return Monitor{}, err
	}

	if win, err := c.ActiveWindow(); err == nil && win != 0 {
		if x, y, w, h, ok := c.windowGeometry(win); ok {
			if m, ok := monitorAt(monitors, x+w/2, y+h/2); ok {
				return m, nil
			}
		}
	}
	if x, y, err := c.PointerPosition(); err == nil {
		if m, ok := monitorAt(monitors, x, y); ok {
			return m, nil
		}
	}
	return monitors[0], nil
}

func monitorAt(monitors []Monitor, x, y int) (Monitor, bool) {
	for _, m := range monitors {
		if m.Bounds.contains(x, y) {
			return m, true
		}
	}
	return Monitor{}, false
}

// strutSet is the list of dock reservations in root coordinates.
type strutSet []Area

func (c *Connection) dockStruts() strutSet {
	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return nil
	}
	rootW, rootH := int(rootGeom.Width), int(rootGeom.Height)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil
	}

	var out strutSet
	for _, win := range clients {
		if !c.hasWindowType(win, "_NET_WM_WINDOW_TYPE_DOCK") {
			continue
		}
		sp, err := ewmh.WmStrutPartialGet(c.XUtil, win)
		if err != nil {
			// Some docks only set _NET_WM_STRUT (no partial ranges).
			s, err := ewmh.WmStrutGet(c.XUtil, win)
			if err != nil {
				continue
			}
			sp = &ewmh.WmStrutPartial{
				Left: s.Left, Right: s.Right, Top: s.Top, Bottom: s.Bottom,
				LeftEndY: uint(rootH - 1), RightEndY: uint(rootH - 1),
				TopEndX: uint(rootW - 1), BottomEndX: uint(rootW - 1),
			}
		}
		out = append(out, strutAreas(sp, rootW, rootH)...)
	}
	return out
}

func strutAreas(sp *ewmh.WmStrutPartial, rootW, rootH int) []Area {
	var out []Area
	if sp.Top > 0 {
		out = append(out, Area{X: int(sp.TopStartX), Y: 0, Width: int(sp.TopEndX) - int(sp.TopStartX) + 1, Height: int(sp.Top)})
	}
	if sp.Bottom > 0 {
		out = append(out, Area{X: int(sp.BottomStartX), Y: rootH - int(sp.Bottom), Width: int(sp.BottomEndX) - int(sp.BottomStartX) + 1, Height: int(sp.Bottom)})
	}
	if sp.Left > 0 {
		out = append(out, Area{X: 0, Y: int(sp.LeftStartY), Width: int(sp.Left), Height: int(sp.LeftEndY) - int(sp.LeftStartY) + 1})
	}
	if sp.Right > 0 {
		out = append(out, Area{X: rootW - int(sp.Right), Y: int(sp.RightStartY), Width: int(sp.Right), Height: int(sp.RightEndY) - int(sp.RightStartY) + 1})
	}
	return out
}

// apply shrinks bounds away from every strut touching one of its edges.
func (s strutSet) apply(bounds Area) Area {
	var left, right, top, bottom int
	for _, st := range s {
		isect, ok := intersect(bounds, st)
		if !ok {
			continue
		}
		switch {
		case isect.Width >= isect.Height && isect.Y == bounds.Y:
			top = max(top, isect.Height)
		case isect.Width >= isect.Height && isect.Y+isect.Height == bounds.Y+bounds.Height:
			bottom = max(bottom, isect.Height)
		case isect.X == bounds.X:
			left = max(left, isect.Width)
		case isect.X+isect.Width == bounds.X+bounds.Width:
			right = max(right, isect.Width)
		}
	}
	out := Area{
		X:      bounds.X + left,
		Y:      bounds.Y + top,
		Width:  bounds.Width - left - right,
		Height: bounds.Height - top - bottom,
	}
	if out.Width < 1 {
		out.Width = 1
	}
	if out.Height < 1 {
		out.Height = 1
	}
	return out
}

func intersect(a, b Area) (Area, bool) {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.X+a.Width, b.X+b.Width)
	y2 := min(a.Y+a.Height, b.Y+b.Height)
	if x2 <= x1 || y2 <= y1 {
		return Area{}, false
	}
	return Area{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}, true
}
