package imageio

import (
	"bytes"
	"encoding/base64"
	"image/jpeg"
	"path/filepath"
	"testing"
)

func TestSaveLoadDimensions(t *testing.T) {
	dir := t.TempDir()
	src := patternImage(64, 48)

	for _, name := range []string{"out.png", "out.jpg", "out.webp"} {
		path := filepath.Join(dir, name)
		if err := Save(src, path, 90); err != nil {
			t.Fatalf("Save(%s) failed: %v", name, err)
		}

		w, h, err := Dimensions(path)
		if err != nil {
			t.Fatalf("Dimensions(%s) failed: %v", name, err)
		}
		if w != 64 || h != 48 {
			t.Errorf("Dimensions(%s) = %dx%d, want 64x48", name, w, h)
		}

		img, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", name, err)
		}
		if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
			t.Errorf("Load(%s) = %v, want 64x48", name, img.Bounds())
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEncodeBase64JPEGDownsizes(t *testing.T) {
	src := patternImage(200, 100)

	b64, err := EncodeBase64JPEG(src, 50, 85)
	if err != nil {
		t.Fatalf("EncodeBase64JPEG failed: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("payload is not a JPEG: %v", err)
	}
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 25 {
		t.Errorf("resized to %v, want 50x25", img.Bounds())
	}
}

func TestEncodeBase64JPEGKeepsSmallImages(t *testing.T) {
	src := patternImage(40, 30)

	for _, maxDim := range []int{0, 100} {
		b64, err := EncodeBase64JPEG(src, maxDim, 85)
		if err != nil {
			t.Fatalf("EncodeBase64JPEG(maxDim=%d) failed: %v", maxDim, err)
		}
		raw, _ := base64.StdEncoding.DecodeString(b64)
		img, err := jpeg.Decode(bytes.NewReader(raw))
		if err != nil {
			t.Fatal(err)
		}
		if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
			t.Errorf("maxDim=%d resized to %v, want original 40x30", maxDim, img.Bounds())
		}
	}
}
