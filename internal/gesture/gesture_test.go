package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlowScrollStaysScroll(t *testing.T) {
	r := NewRecognizer()
	r.Configure(1500, false)
	start := time.Unix(0, 0)

	for i := 0; i < 5; i++ {
		ev := r.Feed(15, 0, start.Add(time.Duration(i)*80*time.Millisecond))
		assert.Equal(t, KindScroll, ev.Kind, "sample %d", i)
		assert.Equal(t, 15.0, ev.DX)
	}
}

func TestFastBurstBecomesSingleSwipe(t *testing.T) {
	r := NewRecognizer()
	r.Configure(1000, false)
	start := time.Unix(0, 0)

	var kinds []Kind
	var dir Direction
	for i := 0; i < 6; i++ {
		ev := r.Feed(-40, 5, start.Add(time.Duration(i)*5*time.Millisecond))
		kinds = append(kinds, ev.Kind)
		if ev.Kind == KindSwipe {
			dir = ev.Direction
		}
	}

	swipes := 0
	for _, k := range kinds {
		if k == KindSwipe {
			swipes++
		}
	}
	assert.Equal(t, 1, swipes)
	assert.Equal(t, DirLeft, dir)
	assert.Equal(t, KindIgnored, kinds[len(kinds)-1])
}

func TestSwipeRearmsAfterQuietPeriod(t *testing.T) {
	r := NewRecognizer()
	r.Configure(1000, false)
	start := time.Unix(0, 0)

	for i := 0; i < 4; i++ {
		r.Feed(0, 60, start.Add(time.Duration(i)*5*time.Millisecond))
	}

	later := start.Add(time.Second)
	var got Event
	for i := 0; i < 4; i++ {
		ev := r.Feed(0, 60, later.Add(time.Duration(i)*5*time.Millisecond))
		if ev.Kind == KindSwipe {
			got = ev
		}
	}
	assert.Equal(t, KindSwipe, got.Kind)
	assert.Equal(t, DirDown, got.Direction)
}

func TestReverseScrollInvertsDeltasAndDirection(t *testing.T) {
	r := NewRecognizer()
	r.Configure(1000, true)
	start := time.Unix(0, 0)

	ev := r.Feed(0, 10, start)
	assert.Equal(t, KindScroll, ev.Kind)
	assert.Equal(t, -10.0, ev.DY)

	var dir Direction
	for i := 1; i < 5; i++ {
		e := r.Feed(0, 60, start.Add(time.Duration(i)*5*time.Millisecond))
		if e.Kind == KindSwipe {
			dir = e.Direction
		}
	}
	assert.Equal(t, DirUp, dir)
}

func TestConfigureRejectsNonPositiveThreshold(t *testing.T) {
	r := NewRecognizer()
	r.Configure(0, false)
	assert.Equal(t, DefaultVelocityThreshold, r.VelocityThreshold)
}
