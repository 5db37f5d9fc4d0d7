package activation

import "github.com/1broseidon/penc/internal/platform"

// MinSize is the smallest width or height a preview may shrink to.
const MinSize = 64

// StepDivisor splits the display into nudge steps.
const StepDivisor = 20

// Region is a snap target inside a display's usable area.
type Region int

const (
	RegionFull Region = iota
	RegionLeftHalf
	RegionRightHalf
	RegionTopHalf
	RegionBottomHalf
)

// ApplyRegion returns the part of area covered by region.
func ApplyRegion(area platform.Rect, region Region) platform.Rect {
	adjusted := area

	switch region {
	case RegionLeftHalf:
		adjusted.Width = area.Width / 2

	case RegionRightHalf:
		adjusted.X = area.X + area.Width/2
		adjusted.Width = area.Width - area.Width/2

	case RegionTopHalf:
		adjusted.Height = area.Height / 2

	case RegionBottomHalf:
		adjusted.Y = area.Y + area.Height/2
		adjusted.Height = area.Height - area.Height/2
	}

	if adjusted.Width < 1 {
		adjusted.Width = 1
	}
	if adjusted.Height < 1 {
		adjusted.Height = 1
	}
	return adjusted
}

// CenterIn keeps r's size (capped to area) and centers it in area.
func CenterIn(area, r platform.Rect) platform.Rect {
	w := min(r.Width, area.Width)
	h := min(r.Height, area.Height)
	return platform.Rect{
		X:      area.X + (area.Width-w)/2,
		Y:      area.Y + (area.Height-h)/2,
		Width:  w,
		Height: h,
	}
}

// Step returns the nudge distance for area on each axis.
func Step(area platform.Rect) (int, int) {
	return max(area.Width/StepDivisor, 1), max(area.Height/StepDivisor, 1)
}

// Translate moves r and keeps it inside bounds.
func Translate(bounds, r platform.Rect, dx, dy int) platform.Rect {
	r.X += dx
	r.Y += dy
	return ClampInto(bounds, r)
}

// Grow changes r's size by dw/dh, honoring MinSize and bounds.
func Grow(bounds, r platform.Rect, dw, dh int) platform.Rect {
	r.Width = max(r.Width+dw, MinSize)
	r.Height = max(r.Height+dh, MinSize)
	return ClampInto(bounds, r)
}

// ClampInto shifts r so it lies inside bounds, shrinking it when it is
// larger than bounds.
func ClampInto(bounds, r platform.Rect) platform.Rect {
	if r.Width > bounds.Width {
		r.Width = bounds.Width
	}
	if r.Height > bounds.Height {
		r.Height = bounds.Height
	}
	if r.X < bounds.X {
		r.X = bounds.X
	}
	if r.Y < bounds.Y {
		r.Y = bounds.Y
	}
	if over := r.X + r.Width - (bounds.X + bounds.Width); over > 0 {
		r.X -= over
	}
	if over := r.Y + r.Height - (bounds.Y + bounds.Height); over > 0 {
		r.Y -= over
	}
	return r
}

// UnionBounds is the smallest rectangle covering every display.
func UnionBounds(displays []platform.Display) platform.Rect {
	if len(displays) == 0 {
		return platform.Rect{}
	}
	b := displays[0].Bounds
	minX, minY := b.X, b.Y
	maxX, maxY := b.X+b.Width, b.Y+b.Height
	for _, d := range displays[1:] {
		b := d.Bounds
		minX = min(minX, b.X)
		minY = min(minY, b.Y)
		maxX = max(maxX, b.X+b.Width)
		maxY = max(maxY, b.Y+b.Height)
	}
	return platform.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
