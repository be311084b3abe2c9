package perioscan

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/perioscan/perioscan/pkg/annotation"
	"github.com/perioscan/perioscan/pkg/dataset"
)

// createTestImage writes a simple gradient radiograph stand-in to disk.
func createTestImage(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 90, A: 255})
		}
	}
	if err := imaging.Save(img, path); err != nil {
		t.Fatal(err)
	}
}

func TestNew(t *testing.T) {
	p := New(nil)
	if p == nil {
		t.Fatal("New() returned nil")
	}
	if p.Store() == nil {
		t.Error("store component is nil")
	}
}

func TestOpenDirectory(t *testing.T) {
	dir := t.TempDir()
	createTestImage(t, filepath.Join(dir, "x01.png"), 40, 30)
	createTestImage(t, filepath.Join(dir, "x02.png"), 40, 30)

	p := New(nil)
	files, err := p.OpenDirectory(dir)
	if err != nil {
		t.Fatalf("OpenDirectory failed: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("expected 2 images, got %v", files)
	}
}

func TestLoadSaveAggregate(t *testing.T) {
	dir := t.TempDir()
	createTestImage(t, filepath.Join(dir, "x01.png"), 40, 30)

	p := New(nil)
	if _, err := p.OpenDirectory(dir); err != nil {
		t.Fatal(err)
	}

	rec, err := p.Load("x01.png", 40, 30)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	rec.Points = append(rec.Points, annotation.Point{X: 10, Y: 10, Class: annotation.ClassCEJ})
	if err := p.Save(rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	path, err := p.Aggregate()
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("aggregate file missing: %v", err)
	}
}

func TestExportDatasets(t *testing.T) {
	dir := t.TempDir()
	createTestImage(t, filepath.Join(dir, "x01.png"), 100, 80)

	p := New(nil)
	if _, err := p.OpenDirectory(dir); err != nil {
		t.Fatal(err)
	}

	rec, err := p.Load("x01.png", 100, 80)
	if err != nil {
		t.Fatal(err)
	}
	rec.Points = append(rec.Points,
		annotation.Point{X: 40, Y: 35, Class: annotation.ClassCEJ},
		annotation.Point{X: 55, Y: 45, Class: annotation.ClassCREST},
	)
	rec.BBoxes = append(rec.BBoxes, annotation.BoundingBox{
		CX: 50, CY: 40, Width: 40, Height: 30, Label: "Tooth",
	})
	if err := p.Save(rec); err != nil {
		t.Fatal(err)
	}

	dest := t.TempDir()
	opts := dataset.DefaultOptions()
	opts.ValSplit = 0

	summary, err := p.ExportDatasets(context.Background(), dest, opts)
	if err != nil {
		t.Fatalf("ExportDatasets failed: %v", err)
	}
	if summary.Train != 1 {
		t.Errorf("expected 1 training record, got %d", summary.Train)
	}
	if _, err := os.Stat(filepath.Join(dest, dataset.DetectionDirName, "data.yaml")); err != nil {
		t.Errorf("detection manifest missing: %v", err)
	}
}

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
}
