// Package overlay keeps one input overlay per display. Overlays collect
// scroll input during an activation and draw the preview rectangle.
package overlay

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/penc/internal/gesture"
	"github.com/1broseidon/penc/internal/platform"
	"github.com/1broseidon/penc/internal/runloop"
)

// ScrollFunc receives raw scroll deltas in pixels from a surface. It may
// be called from any goroutine.
type ScrollFunc func(dx, dy float64, at time.Time)

// Surface is the window-system side of one overlay.
type Surface interface {
	// Show maps the input window over the display and draws preview.
	Show(preview platform.Rect) error
	// Update redraws preview on a shown surface.
	Update(preview platform.Rect)
	Hide()
	Destroy()
}

// SurfaceFactory creates surfaces for displays.
type SurfaceFactory interface {
	NewSurface(display platform.Display, onScroll ScrollFunc) (Surface, error)
}

// Handler receives recognized gestures on the run loop.
type Handler interface {
	OnScroll(display platform.Display, dx, dy float64)
	OnSwipe(display platform.Display, dir gesture.Direction)
}

// Item is one display's overlay and recognizer.
type Item struct {
	Display    platform.Display
	Recognizer *gesture.Recognizer
	surface    Surface
}

// Pool owns the overlays. All methods must be called on the run loop.
type Pool struct {
	factory SurfaceFactory
	poster  runloop.Poster
	logger  *zap.Logger

	items     map[int]*Item
	threshold float64
	reverse   bool

	handler Handler
	shown   bool
}

// NewPool creates an empty pool.
func NewPool(factory SurfaceFactory, poster runloop.Poster, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		factory:   factory,
		poster:    poster,
		logger:    logger,
		items:     make(map[int]*Item),
		threshold: gesture.DefaultVelocityThreshold,
	}
}

// Sync makes the pool hold exactly one item per display. Existing items
// keep their surface when the display geometry is unchanged.
func (p *Pool) Sync(displays []platform.Display) error {
	seen := make(map[int]bool, len(displays))
	var errs []error

	for _, d := range displays {
		seen[d.ID] = true
		if item, ok := p.items[d.ID]; ok {
			if item.Display == d {
				continue
			}
			item.surface.Destroy()
			delete(p.items, d.ID)
		}

		id := d.ID
		surface, err := p.factory.NewSurface(d, func(dx, dy float64, at time.Time) {
			p.poster.Post(func() { p.feed(id, dx, dy, at) })
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("overlay for display %d: %w", d.ID, err))
			continue
		}
		rec := gesture.NewRecognizer()
		rec.Configure(p.threshold, p.reverse)
		p.items[d.ID] = &Item{Display: d, Recognizer: rec, surface: surface}
	}

	for id, item := range p.items {
		if !seen[id] {
			item.surface.Destroy()
			delete(p.items, id)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of items.
func (p *Pool) Len() int {
	return len(p.items)
}

// ForEach visits items in display order.
func (p *Pool) ForEach(fn func(*Item)) {
	ids := make([]int, 0, len(p.items))
	for id := range p.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fn(p.items[id])
	}
}

// Displays returns the displays covered by the pool, in order.
func (p *Pool) Displays() []platform.Display {
	out := make([]platform.Display, 0, len(p.items))
	p.ForEach(func(item *Item) { out = append(out, item.Display) })
	return out
}

// Configure updates every recognizer in place.
func (p *Pool) Configure(threshold float64, reverse bool) {
	p.threshold = threshold
	p.reverse = reverse
	p.ForEach(func(item *Item) {
		item.Recognizer.Configure(threshold, reverse)
	})
}

// Attach routes recognized gestures to h.
func (p *Pool) Attach(h Handler) {
	p.handler = h
}

// Detach stops routing gestures.
func (p *Pool) Detach() {
	p.handler = nil
}

// Show maps every overlay with the given preview. When any surface fails
// the ones already shown are hidden again.
func (p *Pool) Show(preview platform.Rect) error {
	if len(p.items) == 0 {
		return errors.New("no overlay surfaces")
	}
	var err error
	p.ForEach(func(item *Item) {
		if err != nil {
			return
		}
		item.Recognizer.Reset()
		if showErr := item.surface.Show(preview); showErr != nil {
			err = fmt.Errorf("show overlay on display %d: %w", item.Display.ID, showErr)
		}
	})
	if err != nil {
		p.hideAll()
		return err
	}
	p.shown = true
	return nil
}

// Update redraws the preview on shown overlays.
func (p *Pool) Update(preview platform.Rect) {
	if !p.shown {
		return
	}
	p.ForEach(func(item *Item) { item.surface.Update(preview) })
}

// Hide unmaps every overlay.
func (p *Pool) Hide() {
	if !p.shown {
		return
	}
	p.hideAll()
}

// Shown reports whether the overlays are mapped.
func (p *Pool) Shown() bool {
	return p.shown
}

// Close destroys every surface.
func (p *Pool) Close() {
	for id, item := range p.items {
		item.surface.Destroy()
		delete(p.items, id)
	}
	p.shown = false
	p.handler = nil
}

func (p *Pool) hideAll() {
	p.ForEach(func(item *Item) { item.surface.Hide() })
	p.shown = false
}

func (p *Pool) feed(id int, dx, dy float64, at time.Time) {
	item, ok := p.items[id]
	if !ok || !p.shown || p.handler == nil {
		return
	}
	ev := item.Recognizer.Feed(dx, dy, at)
	switch ev.Kind {
	case gesture.KindScroll:
		p.handler.OnScroll(item.Display, ev.DX, ev.DY)
	case gesture.KindSwipe:
		p.logger.Debug("swipe", zap.Int("display", id), zap.Stringer("direction", ev.Direction))
		p.handler.OnSwipe(item.Display, ev.Direction)
	}
}
