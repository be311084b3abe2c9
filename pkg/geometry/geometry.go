// Package geometry implements the coordinate transforms shared by the
// annotation model and the dataset exporters: oriented-box corner
// expansion, legacy axis-aligned box normalization, unit-square
// normalization, and the mapping between image space and the local space
// of a rotated region of interest.
//
// All public APIs take rotations in degrees; trigonometry is done in
// radians internally.
package geometry

import "math"

// Point is a 2D coordinate in whatever space the caller is working in.
type Point struct {
	X float64
	Y float64
}

// OBB is an oriented bounding box parameterized by center, extent and
// rotation in degrees. Rotation is not range-restricted.
type OBB struct {
	CX       float64
	CY       float64
	Width    float64
	Height   float64
	Rotation float64
}

// Corners returns the four corners of an oriented box in image space.
// The winding is top-left, top-right, bottom-right, bottom-left under
// zero rotation, and at rotation 0 the result equals the corners of the
// equivalent axis-aligned box exactly.
func Corners(cx, cy, w, h, rotation float64) [4]Point {
	rad := rotation * math.Pi / 180
	cos := math.Cos(rad)
	sin := math.Sin(rad)
	hw := w / 2
	hh := h / 2

	local := [4]Point{
		{-hw, -hh},
		{hw, -hh},
		{hw, hh},
		{-hw, hh},
	}

	var out [4]Point
	for i, p := range local {
		out[i] = Point{
			X: cx + p.X*cos - p.Y*sin,
			Y: cy + p.X*sin + p.Y*cos,
		}
	}
	return out
}

// FromLegacy converts a legacy axis-aligned box to the oriented form with
// rotation 0. Round-trips exactly with Corners at zero rotation.
func FromLegacy(xmin, ymin, xmax, ymax float64) OBB {
	return OBB{
		CX:     (xmin + xmax) / 2,
		CY:     (ymin + ymax) / 2,
		Width:  xmax - xmin,
		Height: ymax - ymin,
	}
}

// NormalizeToUnit divides a coordinate by the image dimensions and clamps
// each axis to [0,1]. Boxes partially outside the image are truncated at
// the border rather than rejected.
func NormalizeToUnit(x, y, imageW, imageH float64) (float64, float64) {
	return clamp01(x / imageW), clamp01(y / imageH)
}

// ToROILocal maps an image-space point into the local coordinate space of
// a rotated box: inverse-rotate about the box center, then offset so the
// box occupies [0,w]x[0,h].
func ToROILocal(px, py float64, box OBB) (float64, float64) {
	rad := box.Rotation * math.Pi / 180
	cos := math.Cos(rad)
	sin := math.Sin(rad)
	dx := px - box.CX
	dy := py - box.CY
	rx := dx*cos + dy*sin + box.Width/2
	ry := -dx*sin + dy*cos + box.Height/2
	return rx, ry
}

// FromROILocal is the inverse of ToROILocal. It is used when sampling
// source pixels for a rotation-corrected crop so that pixels and remapped
// landmarks stay aligned by construction.
func FromROILocal(rx, ry float64, box OBB) (float64, float64) {
	rad := box.Rotation * math.Pi / 180
	cos := math.Cos(rad)
	sin := math.Sin(rad)
	lx := rx - box.Width/2
	ly := ry - box.Height/2
	px := box.CX + lx*cos - ly*sin
	py := box.CY + lx*sin + ly*cos
	return px, py
}

// InROI reports whether a ROI-local coordinate lies inside a box of the
// given extent, borders included.
func InROI(rx, ry, w, h float64) bool {
	return rx >= 0 && rx <= w && ry >= 0 && ry <= h
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
