package dataset

import (
	"testing"

	"github.com/perioscan/perioscan/pkg/annotation"
)

func TestTrainable(t *testing.T) {
	box := annotation.BoundingBox{CX: 10, CY: 10, Width: 5, Height: 5, Label: "Tooth"}
	cej := annotation.Point{X: 1, Y: 1, Class: annotation.ClassCEJ}
	crest := annotation.Point{X: 2, Y: 2, Class: annotation.ClassCREST}
	apex := annotation.Point{X: 3, Y: 3, Class: annotation.ClassAPEX}

	tests := []struct {
		name string
		rec  annotation.Record
		want bool
	}{
		{"empty", annotation.Record{}, false},
		{"box only", annotation.Record{BBoxes: []annotation.BoundingBox{box}}, false},
		{"box and CEJ only", annotation.Record{
			BBoxes: []annotation.BoundingBox{box},
			Points: []annotation.Point{cej},
		}, false},
		{"box, CEJ and CREST", annotation.Record{
			BBoxes: []annotation.BoundingBox{box},
			Points: []annotation.Point{cej, crest},
		}, true},
		{"points without box", annotation.Record{
			Points: []annotation.Point{cej, crest},
		}, false},
		{"apex does not satisfy the bar", annotation.Record{
			BBoxes: []annotation.BoundingBox{box},
			Points: []annotation.Point{cej, apex},
		}, false},
		{"unlabeled box still counts as a box", annotation.Record{
			BBoxes: []annotation.BoundingBox{{CX: 1, CY: 1, Width: 2, Height: 2, Label: annotation.UnlabeledBox}},
			Points: []annotation.Point{cej, crest},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.rec
			rec.EnsureDefaults()
			if got := Trainable(&rec); got != tt.want {
				t.Errorf("Trainable = %v, want %v", got, tt.want)
			}
		})
	}
}
