package geometry

import (
	"math"
	"testing"
)

const eps = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestCornersZeroRotation(t *testing.T) {
	tests := []struct {
		name       string
		cx, cy     float64
		w, h       float64
		want       [4]Point
	}{
		{
			name: "centered box",
			cx:   500, cy: 400, w: 200, h: 100,
			want: [4]Point{{400, 350}, {600, 350}, {600, 450}, {400, 450}},
		},
		{
			name: "unit box at origin",
			cx:   0.5, cy: 0.5, w: 1, h: 1,
			want: [4]Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Corners(tt.cx, tt.cy, tt.w, tt.h, 0)
			for i := range got {
				if !approxEqual(got[i].X, tt.want[i].X) || !approxEqual(got[i].Y, tt.want[i].Y) {
					t.Errorf("corner %d = (%v,%v), want (%v,%v)", i, got[i].X, got[i].Y, tt.want[i].X, tt.want[i].Y)
				}
			}
		})
	}
}

func TestCornersRotation90(t *testing.T) {
	// Rotating a 200x100 box by 90 degrees swaps its extents.
	got := Corners(500, 400, 200, 100, 90)

	// Top-left corner (-100,-50) rotates to (50,-100).
	if !approxEqual(got[0].X, 550) || !approxEqual(got[0].Y, 300) {
		t.Errorf("rotated top-left = (%v,%v), want (550,300)", got[0].X, got[0].Y)
	}

	// Center of the corners stays at the box center.
	var sx, sy float64
	for _, c := range got {
		sx += c.X
		sy += c.Y
	}
	if !approxEqual(sx/4, 500) || !approxEqual(sy/4, 400) {
		t.Errorf("corner centroid = (%v,%v), want (500,400)", sx/4, sy/4)
	}
}

func TestCornersFullTurn(t *testing.T) {
	base := Corners(120, 80, 60, 30, 0)
	turned := Corners(120, 80, 60, 30, 360)
	for i := range base {
		if !approxEqual(base[i].X, turned[i].X) || !approxEqual(base[i].Y, turned[i].Y) {
			t.Errorf("corner %d differs after full turn: %v vs %v", i, base[i], turned[i])
		}
	}
}

func TestFromLegacy(t *testing.T) {
	box := FromLegacy(400, 350, 600, 450)
	if box.CX != 500 || box.CY != 400 || box.Width != 200 || box.Height != 100 {
		t.Fatalf("unexpected box: %+v", box)
	}
	if box.Rotation != 0 {
		t.Fatalf("legacy box rotation = %v, want 0", box.Rotation)
	}

	// Round trip through Corners reproduces the original extremes.
	corners := Corners(box.CX, box.CY, box.Width, box.Height, box.Rotation)
	if corners[0].X != 400 || corners[0].Y != 350 || corners[2].X != 600 || corners[2].Y != 450 {
		t.Errorf("corners do not round-trip legacy box: %+v", corners)
	}
}

func TestNormalizeToUnit(t *testing.T) {
	tests := []struct {
		x, y   float64
		wantX  float64
		wantY  float64
	}{
		{400, 350, 0.4, 0.4375},
		{0, 0, 0, 0},
		{1000, 800, 1, 1},
		{-50, 900, 0, 1},   // clamped, not rejected
		{1200, -10, 1, 0},
	}
	for _, tt := range tests {
		gx, gy := NormalizeToUnit(tt.x, tt.y, 1000, 800)
		if !approxEqual(gx, tt.wantX) || !approxEqual(gy, tt.wantY) {
			t.Errorf("NormalizeToUnit(%v,%v) = (%v,%v), want (%v,%v)", tt.x, tt.y, gx, gy, tt.wantX, tt.wantY)
		}
	}
}

func TestToROILocal(t *testing.T) {
	box := OBB{CX: 500, CY: 400, Width: 200, Height: 100}

	// The box center maps to the ROI center.
	rx, ry := ToROILocal(500, 400, box)
	if !approxEqual(rx, 100) || !approxEqual(ry, 50) {
		t.Errorf("center maps to (%v,%v), want (100,50)", rx, ry)
	}

	// A far-away point falls outside the ROI.
	rx, ry = ToROILocal(0, 0, box)
	if InROI(rx, ry, box.Width, box.Height) {
		t.Errorf("(0,0) should fall outside the ROI, got local (%v,%v)", rx, ry)
	}

	// Borders are inclusive.
	rx, ry = ToROILocal(400, 350, box)
	if !InROI(rx, ry, box.Width, box.Height) {
		t.Errorf("top-left corner should be retained, got local (%v,%v)", rx, ry)
	}
}

func TestROIRoundTrip(t *testing.T) {
	box := OBB{CX: 320, CY: 240, Width: 150, Height: 90, Rotation: 33.5}
	pts := []Point{{300, 250}, {320, 240}, {380, 200}, {0, 0}}
	for _, p := range pts {
		rx, ry := ToROILocal(p.X, p.Y, box)
		px, py := FromROILocal(rx, ry, box)
		if !approxEqual(px, p.X) || !approxEqual(py, p.Y) {
			t.Errorf("round trip of (%v,%v) gave (%v,%v)", p.X, p.Y, px, py)
		}
	}
}

func TestToROILocalRotated(t *testing.T) {
	// A point on the rotated box axis stays on the ROI axis.
	box := OBB{CX: 0, CY: 0, Width: 100, Height: 40, Rotation: 90}
	// With 90 degree rotation the box's local +x axis points along image +y.
	rx, ry := ToROILocal(0, 30, box)
	if !approxEqual(rx, 80) || !approxEqual(ry, 20) {
		t.Errorf("rotated remap = (%v,%v), want (80,20)", rx, ry)
	}
}
