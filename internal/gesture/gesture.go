// Package gesture turns raw scroll samples from an overlay window into
// scroll and swipe events.
package gesture

import (
	"math"
	"time"
)

// Defaults for the recognizer.
const (
	DefaultVelocityThreshold = 1500.0 // px/s
	velocityWindow           = 100 * time.Millisecond
	swipeQuietPeriod         = 250 * time.Millisecond
)

// Direction is the dominant axis direction of a swipe.
type Direction int

const (
	DirNone Direction = iota
	DirLeft
	DirRight
	DirUp
	DirDown
)

func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	default:
		return "none"
	}
}

// Kind distinguishes the recognizer outputs.
type Kind int

const (
	KindScroll Kind = iota
	KindSwipe
	// KindIgnored is returned for samples that belong to a swipe burst that
	// has already fired.
	KindIgnored
)

// Event is the recognizer output for one sample.
type Event struct {
	Kind      Kind
	DX, DY    float64
	Direction Direction
}

type sample struct {
	dx, dy float64
	at     time.Time
}

// Recognizer classifies scroll samples. It is not safe for concurrent use;
// the overlay pool feeds it from the run loop only.
type Recognizer struct {
	VelocityThreshold float64
	ReverseScroll     bool

	recent    []sample
	swiped    bool
	lastInput time.Time
}

// NewRecognizer creates a recognizer with the default threshold.
func NewRecognizer() *Recognizer {
	return &Recognizer{VelocityThreshold: DefaultVelocityThreshold}
}

// Configure applies preference values in place.
func (r *Recognizer) Configure(threshold float64, reverse bool) {
	if threshold <= 0 {
		threshold = DefaultVelocityThreshold
	}
	r.VelocityThreshold = threshold
	r.ReverseScroll = reverse
}

// Reset forgets buffered samples.
func (r *Recognizer) Reset() {
	r.recent = r.recent[:0]
	r.swiped = false
	r.lastInput = time.Time{}
}

// Feed classifies one scroll sample. dx/dy are in pixels, positive to the
// right and down before reverse-scroll is applied.
func (r *Recognizer) Feed(dx, dy float64, at time.Time) Event {
	if r.ReverseScroll {
		dx, dy = -dx, -dy
	}

	if !r.lastInput.IsZero() && at.Sub(r.lastInput) >= swipeQuietPeriod {
		r.recent = r.recent[:0]
		r.swiped = false
	}
	r.lastInput = at

	r.recent = append(r.recent, sample{dx: dx, dy: dy, at: at})
	r.trim(at)

	if r.swiped {
		return Event{Kind: KindIgnored}
	}

	vx, vy := r.velocity()
	speed := math.Hypot(vx, vy)
	if speed >= r.VelocityThreshold && speed > 0 {
		r.swiped = true
		return Event{Kind: KindSwipe, DX: dx, DY: dy, Direction: dominant(vx, vy)}
	}
	return Event{Kind: KindScroll, DX: dx, DY: dy}
}

func (r *Recognizer) trim(now time.Time) {
	cut := 0
	for cut < len(r.recent) && now.Sub(r.recent[cut].at) > velocityWindow {
		cut++
	}
	if cut > 0 {
		r.recent = append(r.recent[:0], r.recent[cut:]...)
	}
}

// velocity is the summed displacement over the window divided by the
// window span. A single sample is measured against the full window so one
// isolated notch never counts as a swipe on its own.
func (r *Recognizer) velocity() (float64, float64) {
	if len(r.recent) == 0 {
		return 0, 0
	}
	var sx, sy float64
	for _, s := range r.recent {
		sx += s.dx
		sy += s.dy
	}
	span := r.recent[len(r.recent)-1].at.Sub(r.recent[0].at)
	if span < velocityWindow/4 {
		span = velocityWindow / 4
	}
	if len(r.recent) == 1 {
		span = velocityWindow
	}
	secs := span.Seconds()
	return sx / secs, sy / secs
}

func dominant(vx, vy float64) Direction {
	if math.Abs(vx) >= math.Abs(vy) {
		if vx < 0 {
			return DirLeft
		}
		return DirRight
	}
	if vy < 0 {
		return DirUp
	}
	return DirDown
}
