package annotation

// Scene is the hydrate/read-back surface an editing front end drives the
// model through. The front end pushes whole collections in with the Set
// methods and re-derives its view from the Serialize methods; no other
// coupling is permitted. Scene holds no rendering or input-handling
// state.
type Scene struct {
	points    []Point
	bboxes    []BoundingBox
	boneLines []BoneLine
}

// NewScene builds a scene hydrated from a record.
func NewScene(rec *Record) *Scene {
	sc := &Scene{}
	if rec != nil {
		sc.SetPoints(rec.Points)
		sc.SetBBoxes(rec.BBoxes)
		sc.SetBoneLines(rec.BoneLines)
	}
	return sc
}

// SetPoints replaces the scene's landmark points. Class labels are
// normalized; unrecognized classes become CEJ.
func (sc *Scene) SetPoints(points []Point) {
	sc.points = make([]Point, 0, len(points))
	for _, p := range points {
		p.Class = NormalizeClass(p.Class)
		sc.points = append(sc.points, p)
	}
}

// SetBBoxes replaces the scene's bounding boxes. Boxes arriving from JSON
// are already normalized to the oriented form by BoundingBox decoding;
// empty labels default to Unlabeled.
func (sc *Scene) SetBBoxes(boxes []BoundingBox) {
	sc.bboxes = make([]BoundingBox, 0, len(boxes))
	for _, b := range boxes {
		if b.Label == "" {
			b.Label = UnlabeledBox
		}
		sc.bboxes = append(sc.bboxes, b)
	}
}

// SetBoneLines replaces the scene's bone lines, dropping empty ones.
func (sc *Scene) SetBoneLines(lines []BoneLine) {
	sc.boneLines = make([]BoneLine, 0, len(lines))
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		copied := make(BoneLine, len(line))
		copy(copied, line)
		sc.boneLines = append(sc.boneLines, copied)
	}
}

// SerializePoints returns the current points with coordinates rounded to
// three decimal places. Radius is carried through unchanged.
func (sc *Scene) SerializePoints() []Point {
	out := make([]Point, len(sc.points))
	for i, p := range sc.points {
		p.X = roundTo(p.X, pointPrecision)
		p.Y = roundTo(p.Y, pointPrecision)
		out[i] = p
	}
	return out
}

// SerializeBBoxes returns the current boxes with geometry rounded to one
// decimal place.
func (sc *Scene) SerializeBBoxes() []BoundingBox {
	out := make([]BoundingBox, len(sc.bboxes))
	for i, b := range sc.bboxes {
		b.CX = roundTo(b.CX, boxPrecision)
		b.CY = roundTo(b.CY, boxPrecision)
		b.Width = roundTo(b.Width, boxPrecision)
		b.Height = roundTo(b.Height, boxPrecision)
		b.Rotation = roundTo(b.Rotation, boxPrecision)
		out[i] = b
	}
	return out
}

// SerializeBoneLines returns the current bone lines.
func (sc *Scene) SerializeBoneLines() []BoneLine {
	out := make([]BoneLine, len(sc.boneLines))
	for i, line := range sc.boneLines {
		copied := make(BoneLine, len(line))
		copy(copied, line)
		out[i] = copied
	}
	return out
}

// ApplyTo writes the scene's serialized state back into a record.
func (sc *Scene) ApplyTo(rec *Record) {
	rec.Points = sc.SerializePoints()
	rec.BBoxes = sc.SerializeBBoxes()
	rec.BoneLines = sc.SerializeBoneLines()
	rec.EnsureDefaults()
}
