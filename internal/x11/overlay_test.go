package x11

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

func TestScrollDeltaButtons(t *testing.T) {
	cases := []struct {
		button xproto.Button
		dx, dy float64
		ok     bool
	}{
		{4, 0, -ScrollStep, true},
		{5, 0, ScrollStep, true},
		{6, -ScrollStep, 0, true},
		{7, ScrollStep, 0, true},
		{1, 0, 0, false},
	}
	for _, tc := range cases {
		dx, dy, ok := scrollDelta(tc.button)
		if dx != tc.dx || dy != tc.dy || ok != tc.ok {
			t.Fatalf("scrollDelta(%d) = (%v, %v, %v), want (%v, %v, %v)", tc.button, dx, dy, ok, tc.dx, tc.dy, tc.ok)
		}
	}
}

func TestHintOriginStaysInsideUsableArea(t *testing.T) {
	area := Area{X: 100, Y: 30, Width: 800, Height: 600}
	w, h := hintSize(hintLines)
	x, y := hintOrigin(area, w, h)
	if x < area.X || x+w > area.X+area.Width {
		t.Fatalf("hint x out of area: x=%d w=%d area=%+v", x, w, area)
	}
	if y != area.Y+hintMargin {
		t.Fatalf("hint y = %d, want %d", y, area.Y+hintMargin)
	}
}

func TestHintOriginClampsNarrowArea(t *testing.T) {
	area := Area{X: 50, Y: 0, Width: 40, Height: 300}
	x, _ := hintOrigin(area, 200, 80)
	if x != area.X {
		t.Fatalf("expected clamp to %d, got %d", area.X, x)
	}
}
