package annotation

import "testing"

func TestNormalizeClass(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CEJ", ClassCEJ},
		{"crest", ClassCREST},
		{"Apex", ClassAPEX},
		{"", ClassCEJ},
		{"molar", ClassCEJ},
	}
	for _, tt := range tests {
		if got := NormalizeClass(tt.in); got != tt.want {
			t.Errorf("NormalizeClass(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBoxClassIndex(t *testing.T) {
	if idx, ok := BoxClassIndex("Tooth"); !ok || idx != 0 {
		t.Errorf("Tooth = (%d,%v), want (0,true)", idx, ok)
	}
	if idx, ok := BoxClassIndex("LD"); !ok || idx != 3 {
		t.Errorf("LD = (%d,%v), want (3,true)", idx, ok)
	}
	if idx, ok := BoxClassIndex("Incisor"); ok || idx != 0 {
		t.Errorf("unknown label = (%d,%v), want fallback (0,false)", idx, ok)
	}
	// The reserved entry maps below the exported range.
	if idx, ok := BoxClassIndex(UnlabeledBox); !ok || idx != -1 {
		t.Errorf("Unlabeled = (%d,%v), want (-1,true)", idx, ok)
	}
}

func TestSceneNormalizesOnHydrate(t *testing.T) {
	sc := &Scene{}
	sc.SetPoints([]Point{
		{X: 1, Y: 2, Class: "crest"},
		{X: 3, Y: 4, Class: "bogus"},
	})
	sc.SetBBoxes([]BoundingBox{{CX: 10, CY: 10, Width: 5, Height: 5}})
	sc.SetBoneLines([]BoneLine{{}, {{X: 1, Y: 1}}})

	pts := sc.SerializePoints()
	if pts[0].Class != ClassCREST || pts[1].Class != ClassCEJ {
		t.Errorf("classes not normalized: %+v", pts)
	}
	if boxes := sc.SerializeBBoxes(); boxes[0].Label != UnlabeledBox {
		t.Errorf("empty label should default to Unlabeled, got %q", boxes[0].Label)
	}
	if lines := sc.SerializeBoneLines(); len(lines) != 1 {
		t.Errorf("empty bone lines should be dropped, got %d", len(lines))
	}
}

func TestSceneSerializeRounds(t *testing.T) {
	sc := &Scene{}
	sc.SetPoints([]Point{{X: 1.23456, Y: 7.89012, Class: ClassAPEX}})
	sc.SetBBoxes([]BoundingBox{{CX: 10.07, CY: 20.04, Width: 5.55, Height: 6.66, Rotation: 45.67, Label: "PDL"}})

	p := sc.SerializePoints()[0]
	if p.X != 1.235 || p.Y != 7.89 {
		t.Errorf("point rounded to (%v,%v), want (1.235,7.89)", p.X, p.Y)
	}

	b := sc.SerializeBBoxes()[0]
	if b.CX != 10.1 || b.CY != 20.0 || b.Width != 5.6 || b.Height != 6.7 || b.Rotation != 45.7 {
		t.Errorf("box not rounded to 1 decimal: %+v", b)
	}
	if b.Label != "PDL" {
		t.Errorf("label changed: %q", b.Label)
	}
}

func TestSceneRoundTripThroughRecord(t *testing.T) {
	rec := &Record{FileName: "x.png", Width: 100, Height: 100}
	rec.EnsureDefaults()

	sc := NewScene(rec)
	sc.SetPoints([]Point{{X: 5, Y: 6, Class: ClassCEJ}})
	sc.ApplyTo(rec)

	if len(rec.Points) != 1 || rec.Points[0].X != 5 {
		t.Errorf("ApplyTo did not write back points: %+v", rec.Points)
	}
	if rec.BBoxes == nil || rec.BoneLines == nil {
		t.Error("ApplyTo must keep collections non-nil")
	}
}
