// Package annotation defines the per-image annotation model and the
// JSON-backed store that persists it. A record holds landmark points,
// oriented bounding boxes and polyline bone curves for one radiograph;
// records are keyed by image file name and written one JSON file per
// image stem.
package annotation

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/perioscan/perioscan/pkg/geometry"
)

// Landmark point classes.
const (
	ClassCEJ   = "CEJ"
	ClassCREST = "CREST"
	ClassAPEX  = "APEX"
)

// LandmarkClasses lists the valid point classes in display order.
var LandmarkClasses = []string{ClassCEJ, ClassCREST, ClassAPEX}

// LandmarkColors maps point classes to their display colors. Carried as
// metadata for editing front ends; the export pipeline never reads them.
var LandmarkColors = map[string]string{
	ClassCEJ:   "#4DA3FF",
	ClassCREST: "#61D0B5",
	ClassAPEX:  "#FFC107",
}

// UnlabeledBox is the reserved first entry of BoxClasses. Boxes carrying
// it are excluded from detection labels.
const UnlabeledBox = "Unlabeled"

// BoxClasses is the fixed ordered bounding-box class list. Index 0 is the
// reserved "unlabeled" value; detection class indices are positions in
// this list minus one.
var BoxClasses = []string{UnlabeledBox, "Tooth", "Crest", "PDL", "LD"}

// BoxColors maps box classes to their display colors.
var BoxColors = map[string]string{
	UnlabeledBox: "#808080",
	"Tooth":      "#FF5733",
	"Crest":      "#3357FF",
	"PDL":        "#FF33F6",
	"LD":         "#33FFF6",
}

// NormalizeClass uppercases a landmark class label and falls back to CEJ
// for anything outside the known set.
func NormalizeClass(label string) string {
	label = strings.ToUpper(label)
	for _, c := range LandmarkClasses {
		if label == c {
			return c
		}
	}
	return ClassCEJ
}

// BoxClassIndex returns the detection class index for a box label: its
// position in BoxClasses with the reserved first entry subtracted out.
// Unknown labels fall back to 0; ok is false so callers can flag them.
func BoxClassIndex(label string) (idx int, ok bool) {
	for i, c := range BoxClasses {
		if c == label {
			return i - 1, true
		}
	}
	return 0, false
}

// Point is a landmark in image-space coordinates. Radius is display-only
// and carried through unchanged; nil means unset.
type Point struct {
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Class  string   `json:"class"`
	Radius *float64 `json:"radius,omitempty"`
}

// Vertex is one point of a bone line.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoneLine is an ordered polyline; the first and last vertices are the
// anatomically meaningful endpoints.
type BoneLine []Vertex

// BoundingBox is an oriented box in image space. Legacy axis-aligned
// input ({xmin,ymin,xmax,ymax}) is normalized to this form on decode;
// only the oriented form is ever persisted.
type BoundingBox struct {
	CX       float64 `json:"cx"`
	CY       float64 `json:"cy"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	Label    string  `json:"label"`
}

// Geometry returns the box parameters as a geometry.OBB.
func (b BoundingBox) Geometry() geometry.OBB {
	return geometry.OBB{CX: b.CX, CY: b.CY, Width: b.Width, Height: b.Height, Rotation: b.Rotation}
}

// UnmarshalJSON accepts both the oriented form and the legacy
// axis-aligned form, normalizing the latter through geometry.FromLegacy.
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var raw struct {
		CX       *float64 `json:"cx"`
		CY       *float64 `json:"cy"`
		Width    *float64 `json:"width"`
		Height   *float64 `json:"height"`
		Rotation *float64 `json:"rotation"`
		Label    *string  `json:"label"`
		XMin     *float64 `json:"xmin"`
		YMin     *float64 `json:"ymin"`
		XMax     *float64 `json:"xmax"`
		YMax     *float64 `json:"ymax"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.CX != nil {
		b.CX = *raw.CX
		if raw.CY != nil {
			b.CY = *raw.CY
		}
		if raw.Width != nil {
			b.Width = *raw.Width
		}
		if raw.Height != nil {
			b.Height = *raw.Height
		}
	} else {
		var xmin, ymin, xmax, ymax float64
		if raw.XMin != nil {
			xmin = *raw.XMin
		}
		if raw.YMin != nil {
			ymin = *raw.YMin
		}
		if raw.XMax != nil {
			xmax = *raw.XMax
		}
		if raw.YMax != nil {
			ymax = *raw.YMax
		}
		obb := geometry.FromLegacy(xmin, ymin, xmax, ymax)
		b.CX, b.CY, b.Width, b.Height = obb.CX, obb.CY, obb.Width, obb.Height
	}

	b.Rotation = 0
	if raw.Rotation != nil {
		b.Rotation = *raw.Rotation
	}

	b.Label = UnlabeledBox
	if raw.Label != nil && *raw.Label != "" {
		b.Label = *raw.Label
	}
	return nil
}

// Record is the per-image annotation document. FileName is the record
// identity; Width and Height are the authoritative image dimensions.
type Record struct {
	FileName  string        `json:"file_name"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Points    []Point       `json:"points"`
	BBoxes    []BoundingBox `json:"bboxes"`
	BoneLines []BoneLine    `json:"bone_lines"`
}

// EnsureDefaults replaces nil collections with empty ones so a record
// never serializes null where a list belongs.
func (r *Record) EnsureDefaults() {
	if r.Points == nil {
		r.Points = []Point{}
	}
	if r.BBoxes == nil {
		r.BBoxes = []BoundingBox{}
	}
	if r.BoneLines == nil {
		r.BoneLines = []BoneLine{}
	}
}

// HasPointClass reports whether the record contains at least one point of
// the given class.
func (r *Record) HasPointClass(class string) bool {
	for _, p := range r.Points {
		if p.Class == class {
			return true
		}
	}
	return false
}

// Persisted precision: box geometry is rounded to one decimal place and
// point coordinates to three on save. Consumers comparing pre-save and
// post-load state must account for this rounding.
const (
	boxPrecision   = 1
	pointPrecision = 3
)

// Rounded returns a copy of the record with geometry rounded to the
// persisted precision.
func (r Record) Rounded() Record {
	out := r
	out.EnsureDefaults()

	out.Points = make([]Point, len(r.Points))
	for i, p := range r.Points {
		p.X = roundTo(p.X, pointPrecision)
		p.Y = roundTo(p.Y, pointPrecision)
		out.Points[i] = p
	}

	out.BBoxes = make([]BoundingBox, len(r.BBoxes))
	for i, b := range r.BBoxes {
		b.CX = roundTo(b.CX, boxPrecision)
		b.CY = roundTo(b.CY, boxPrecision)
		b.Width = roundTo(b.Width, boxPrecision)
		b.Height = roundTo(b.Height, boxPrecision)
		b.Rotation = roundTo(b.Rotation, boxPrecision)
		if b.Label == "" {
			b.Label = UnlabeledBox
		}
		out.BBoxes[i] = b
	}

	out.BoneLines = make([]BoneLine, len(r.BoneLines))
	for i, line := range r.BoneLines {
		rounded := make(BoneLine, len(line))
		for j, v := range line {
			rounded[j] = Vertex{X: roundTo(v.X, pointPrecision), Y: roundTo(v.Y, pointPrecision)}
		}
		out.BoneLines[i] = rounded
	}
	return out
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
