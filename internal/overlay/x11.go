//go:build linux

package overlay

import (
	"github.com/1broseidon/penc/internal/platform"
	"github.com/1broseidon/penc/internal/x11"
)

// X11Factory creates overlay surfaces on an X connection.
type X11Factory struct {
	conn *x11.Connection
}

var _ SurfaceFactory = (*X11Factory)(nil)

// NewX11Factory wraps conn. conn.EventLoop must run for scroll input.
func NewX11Factory(conn *x11.Connection) *X11Factory {
	return &X11Factory{conn: conn}
}

// NewSurface implements SurfaceFactory.
func (f *X11Factory) NewSurface(d platform.Display, onScroll ScrollFunc) (Surface, error) {
	s, err := f.conn.NewSurface(toArea(d.Bounds), toArea(d.Usable), onScroll)
	if err != nil {
		return nil, err
	}
	return x11Surface{s: s}, nil
}

type x11Surface struct {
	s *x11.Surface
}

func (x x11Surface) Show(preview platform.Rect) error { return x.s.Show(toArea(preview)) }
func (x x11Surface) Update(preview platform.Rect)     { x.s.Update(toArea(preview)) }
func (x x11Surface) Hide()                            { x.s.Hide() }
func (x x11Surface) Destroy()                         { x.s.Destroy() }

func toArea(r platform.Rect) x11.Area {
	return x11.Area{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}
