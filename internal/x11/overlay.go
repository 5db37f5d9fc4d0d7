package x11

import (
	"fmt"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Overlay colors
const (
	ColorPreview  = 0x3498db // Blue - preview rectangle
	ColorHintText = 0xf5f7fa
	ColorHintBg   = 0x1f2933
)

// BorderThickness of the preview rectangle in pixels
const BorderThickness = 4

// ScrollStep is the pixel distance of one wheel notch.
const ScrollStep = 15.0

const (
	hintMargin     = 12
	hintPaddingX   = 10
	hintPaddingY   = 8
	hintLineHeight = 16
	hintCharWidth  = 7
)

var hintLines = []string{
	"Arrows        move",
	"Shift+Arrows  resize",
	"h j k l       halves",
	"f fill  c center",
	"Esc           cancel",
}

// NewSurface creates the unmapped overlay windows for one monitor.
// c.EventLoop must be running for scroll input to arrive; onScroll is
// called on the event loop goroutine.
func (c *Connection) NewSurface(bounds, usable Area, onScroll func(dx, dy float64, at time.Time)) (*Surface, error) {
	s := &Surface{xu: c.XUtil, root: c.Root, bounds: bounds, usable: usable}

	input, err := s.createInputWindow()
	if err != nil {
		return nil, fmt.Errorf("create input window: %w", err)
	}
	s.input = input

	for i := range s.border {
		wid, err := s.createBorderWindow()
		if err != nil {
			s.Destroy()
			return nil, fmt.Errorf("create border window: %w", err)
		}
		s.border[i] = wid
	}

	xevent.ButtonPressFun(func(_ *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
		dx, dy, ok := scrollDelta(ev.Detail)
		if ok {
			onScroll(dx, dy, time.Now())
		}
	}).Connect(s.xu, s.input)

	return s, nil
}

// Surface is an input-only window covering a monitor plus four thin
// border windows around the preview.
type Surface struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	bounds Area
	usable Area

	input  xproto.Window
	border [4]xproto.Window // top, bottom, left, right
	hint   hintPanel
	mapped bool
}

type hintPanel struct {
	window   xproto.Window
	gc       xproto.Gcontext
	font     xproto.Font
	created  bool
	disabled bool
}

// Show maps the input window and draws preview.
func (s *Surface) Show(preview Area) error {
	conn := s.xu.Conn()
	b := s.bounds
	err := xproto.ConfigureWindowChecked(
		conn,
		s.input,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode,
		[]uint32{uint32(b.X), uint32(b.Y), uint32(b.Width), uint32(b.Height), xproto.StackModeAbove},
	).Check()
	if err != nil {
		return err
	}
	if err := xproto.MapWindowChecked(conn, s.input).Check(); err != nil {
		return err
	}
	s.mapped = true
	s.Update(preview)
	s.showHint()
	return nil
}

// Update redraws the preview border. Only the monitor holding the preview
// center draws it.
func (s *Surface) Update(preview Area) {
	if !s.mapped {
		return
	}
	cx, cy := preview.X+preview.Width/2, preview.Y+preview.Height/2
	if preview.Width <= 0 || preview.Height <= 0 || !s.bounds.contains(cx, cy) {
		s.unmapBorder()
		return
	}

	x, y, w, h, t := preview.X, preview.Y, preview.Width, preview.Height, BorderThickness
	s.place(s.border[0], x, y, w, t)
	s.place(s.border[1], x, y+h-t, w, t)
	s.place(s.border[2], x, y+t, t, h-2*t)
	s.place(s.border[3], x+w-t, y+t, t, h-2*t)
	for _, wid := range s.border {
		xproto.MapWindow(s.xu.Conn(), wid)
	}
}

// Hide unmaps every window of the surface.
func (s *Surface) Hide() {
	if !s.mapped {
		return
	}
	conn := s.xu.Conn()
	xproto.UnmapWindow(conn, s.input)
	s.unmapBorder()
	if s.hint.created {
		xproto.UnmapWindow(conn, s.hint.window)
	}
	s.mapped = false
}

// Destroy frees the X resources.
func (s *Surface) Destroy() {
	conn := s.xu.Conn()
	if s.input != 0 {
		xevent.Detach(s.xu, s.input)
		xproto.DestroyWindow(conn, s.input)
		s.input = 0
	}
	for i, wid := range s.border {
		if wid != 0 {
			xproto.DestroyWindow(conn, wid)
			s.border[i] = 0
		}
	}
	if s.hint.created {
		xproto.FreeGC(conn, s.hint.gc)
		xproto.CloseFont(conn, s.hint.font)
		xproto.DestroyWindow(conn, s.hint.window)
		s.hint = hintPanel{}
	}
	s.mapped = false
}

func (s *Surface) unmapBorder() {
	for _, wid := range s.border {
		if wid != 0 {
			xproto.UnmapWindow(s.xu.Conn(), wid)
		}
	}
}

func (s *Surface) createInputWindow() (xproto.Window, error) {
	conn := s.xu.Conn()
	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}
	b := s.bounds
	// Value order follows the mask bits: OverrideRedirect, then EventMask.
	err = xproto.CreateWindowChecked(
		conn,
		0,
		wid,
		s.root,
		int16(b.X), int16(b.Y),
		uint16(max(b.Width, 1)), uint16(max(b.Height, 1)),
		0,
		xproto.WindowClassInputOnly,
		0,
		xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{1, xproto.EventMaskButtonPress},
	).Check()
	if err != nil {
		return 0, err
	}
	return wid, nil
}

func (s *Surface) createBorderWindow() (xproto.Window, error) {
	conn := s.xu.Conn()
	screen := s.xu.Screen()
	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}
	// CwBackPixel comes before CwOverrideRedirect in the value list.
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		s.root,
		0, 0, 1, 1, 0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect,
		[]uint32{ColorPreview, 1},
	).Check()
	if err != nil {
		return 0, err
	}
	return wid, nil
}

func (s *Surface) place(wid xproto.Window, x, y, width, height int) {
	xproto.ConfigureWindow(
		s.xu.Conn(),
		wid,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode,
		[]uint32{uint32(x), uint32(y), uint32(max(width, 1)), uint32(max(height, 1)), xproto.StackModeAbove},
	)
}

// showHint draws the key legend in the top-right corner of the usable
// area. Missing core fonts disable the hint for the surface's lifetime.
func (s *Surface) showHint() {
	if !s.ensureHint() {
		return
	}
	conn := s.xu.Conn()
	w, h := hintSize(hintLines)
	x, y := hintOrigin(s.usable, w, h)

	s.place(s.hint.window, x, y, w, h)
	xproto.MapWindow(conn, s.hint.window)
	xproto.ClearArea(conn, false, s.hint.window, 0, 0, 0, 0)

	baseline := hintPaddingY + hintLineHeight - 4
	for i, line := range hintLines {
		xproto.ImageText8(conn, byte(len(line)), xproto.Drawable(s.hint.window), s.hint.gc,
			int16(hintPaddingX), int16(baseline+i*hintLineHeight), line)
	}
}

func (s *Surface) ensureHint() bool {
	if s.hint.disabled {
		return false
	}
	if s.hint.created {
		return true
	}
	conn := s.xu.Conn()

	wid, err := s.createBorderWindow()
	if err != nil {
		s.hint.disabled = true
		return false
	}
	xproto.ChangeWindowAttributes(conn, wid, xproto.CwBackPixel, []uint32{ColorHintBg})

	font, err := xproto.NewFontId(conn)
	if err != nil {
		xproto.DestroyWindow(conn, wid)
		s.hint.disabled = true
		return false
	}
	opened := false
	for _, name := range []string{"fixed", "9x15", "8x13", "6x13"} {
		if xproto.OpenFontChecked(conn, font, uint16(len(name)), name).Check() == nil {
			opened = true
			break
		}
	}
	if !opened {
		xproto.DestroyWindow(conn, wid)
		s.hint.disabled = true
		return false
	}

	gc, err := xproto.NewGcontextId(conn)
	if err == nil {
		err = xproto.CreateGCChecked(conn, gc, xproto.Drawable(wid),
			xproto.GcForeground|xproto.GcBackground|xproto.GcFont|xproto.GcGraphicsExposures,
			[]uint32{ColorHintText, ColorHintBg, uint32(font), 0},
		).Check()
	}
	if err != nil {
		xproto.CloseFont(conn, font)
		xproto.DestroyWindow(conn, wid)
		s.hint.disabled = true
		return false
	}

	s.hint = hintPanel{window: wid, gc: gc, font: font, created: true}
	return true
}

func hintSize(lines []string) (int, int) {
	maxChars := 0
	for _, line := range lines {
		maxChars = max(maxChars, len(line))
	}
	return maxChars*hintCharWidth + 2*hintPaddingX, len(lines)*hintLineHeight + 2*hintPaddingY
}

func hintOrigin(area Area, width, height int) (int, int) {
	x := area.X + area.Width - hintMargin - width
	y := area.Y + hintMargin
	if x < area.X {
		x = area.X
	}
	return x, y
}

// scrollDelta maps core pointer buttons 4-7 to a pixel delta.
func scrollDelta(button xproto.Button) (dx, dy float64, ok bool) {
	switch button {
	case 4:
		return 0, -ScrollStep, true
	case 5:
		return 0, ScrollStep, true
	case 6:
		return -ScrollStep, 0, true
	case 7:
		return ScrollStep, 0, true
	default:
		return 0, 0, false
	}
}
