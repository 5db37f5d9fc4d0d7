package activation

import (
	"testing"

	"github.com/1broseidon/penc/internal/platform"
)

func TestApplyRegionHalvesCoverArea(t *testing.T) {
	area := platform.Rect{X: 10, Y: 20, Width: 1001, Height: 601}

	left := ApplyRegion(area, RegionLeftHalf)
	right := ApplyRegion(area, RegionRightHalf)
	if left.Width+right.Width != area.Width {
		t.Fatalf("halves do not cover width: %d + %d != %d", left.Width, right.Width, area.Width)
	}
	if right.X != left.X+left.Width {
		t.Fatalf("right half starts at %d, want %d", right.X, left.X+left.Width)
	}

	top := ApplyRegion(area, RegionTopHalf)
	bottom := ApplyRegion(area, RegionBottomHalf)
	if top.Height+bottom.Height != area.Height {
		t.Fatalf("halves do not cover height: %d + %d != %d", top.Height, bottom.Height, area.Height)
	}
}

func TestApplyRegionClampsToMinimumSize(t *testing.T) {
	adjusted := ApplyRegion(platform.Rect{Width: 1, Height: 1}, RegionLeftHalf)
	if adjusted.Width != 1 || adjusted.Height != 1 {
		t.Fatalf("expected 1x1, got %dx%d", adjusted.Width, adjusted.Height)
	}
}

func TestGrowHonorsMinSize(t *testing.T) {
	bounds := platform.Rect{Width: 1000, Height: 1000}
	got := Grow(bounds, platform.Rect{X: 10, Y: 10, Width: 100, Height: 100}, -500, 0)
	if got.Width != MinSize {
		t.Fatalf("width = %d, want %d", got.Width, MinSize)
	}
}

func TestClampIntoShrinksOversized(t *testing.T) {
	bounds := platform.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	got := ClampInto(bounds, platform.Rect{X: -50, Y: 100, Width: 1000, Height: 200})
	want := platform.Rect{X: 0, Y: 100, Width: 800, Height: 200}
	if got != want {
		t.Fatalf("ClampInto() = %+v, want %+v", got, want)
	}
}

func TestUnionBounds(t *testing.T) {
	got := UnionBounds([]platform.Display{
		{Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
		{Bounds: platform.Rect{X: 1920, Y: -200, Width: 1280, Height: 1024}},
	})
	want := platform.Rect{X: 0, Y: -200, Width: 3200, Height: 1280}
	if got != want {
		t.Fatalf("UnionBounds() = %+v, want %+v", got, want)
	}
}
