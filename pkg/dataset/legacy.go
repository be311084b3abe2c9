package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/perioscan/perioscan/internal/logging"
	"github.com/perioscan/perioscan/internal/utils"
	"github.com/perioscan/perioscan/pkg/annotation"
	"github.com/perioscan/perioscan/pkg/geometry"
	"github.com/perioscan/perioscan/pkg/imageio"
)

// legacyExtensions is the probe order used to locate the image belonging
// to a legacy annotation stem.
var legacyExtensions = []string{".jpg", ".png", ".jpeg", ".bmp", ".tif", ".tiff"}

// crestMatchTolerance is the pixel distance under which a bone-line
// endpoint is considered already covered by an existing CREST point.
const crestMatchTolerance = 2.0

// legacyKeypointFile is the old keypoint annotation schema: raw coordinate
// tuples instead of typed objects.
type legacyKeypointFile struct {
	BBoxes     [][]float64 `json:"bboxes"`
	CEJPoints  [][]float64 `json:"CEJ_Points"`
	ApexPoints [][]float64 `json:"Apex_Points"`
}

// legacyBoneFile is the old bone-level annotation schema, stored in a
// sibling directory keyed by the same stem.
type legacyBoneFile struct {
	BoneLines [][][]float64 `json:"Bone_Lines"`
}

// LegacyOptions locates the pieces of an old-format dataset.
type LegacyOptions struct {
	// KeypointDir holds the old keypoint JSON files.
	KeypointDir string
	// ImageDir holds the source images, matched by stem.
	ImageDir string
	// BoneDir optionally holds the old bone-line JSON files.
	BoneDir string
	// DestDir receives the images and the converted annotations/ subtree.
	DestDir string
}

// ConvertLegacy migrates an old-format keypoint dataset into the current
// per-image record schema: images are copied into DestDir, axis-aligned
// box tuples become labeled Tooth boxes, CEJ/Apex tuples become typed
// points, bone lines are attached from the sibling bone directory, and a
// CREST point is synthesized for any bone-line endpoint not already
// covered by one. Returns the number of records written. Per-file
// problems are logged and skipped.
func ConvertLegacy(opts LegacyOptions, log *logging.Logger) (int, error) {
	if log == nil {
		log = logging.NewNop()
	}
	if !utils.DirExists(opts.KeypointDir) {
		return 0, fmt.Errorf("keypoint directory %s: %w", opts.KeypointDir, os.ErrNotExist)
	}
	if err := utils.EnsureDir(opts.DestDir); err != nil {
		return 0, err
	}

	store := annotation.NewStore(log)
	if _, err := store.SetRoot(opts.DestDir); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(opts.KeypointDir)
	if err != nil {
		return 0, err
	}

	converted := 0
	for _, entry := range entries {
		if entry.IsDir() || utils.Extension(entry.Name()) != "json" {
			continue
		}
		stem := utils.Stem(entry.Name())

		imgPath, ok := findLegacyImage(opts.ImageDir, stem)
		if !ok {
			log.Warn("image for legacy annotation not found, skipping", "stem", stem)
			continue
		}

		rec, err := buildLegacyRecord(filepath.Join(opts.KeypointDir, entry.Name()), imgPath, opts.BoneDir, stem, log)
		if err != nil {
			log.Warn("skipping legacy annotation", "stem", stem, "error", err)
			continue
		}

		if err := utils.CopyFile(imgPath, filepath.Join(opts.DestDir, rec.FileName)); err != nil {
			log.Warn("failed to copy legacy image", "stem", stem, "error", err)
			continue
		}
		if err := store.Save(rec); err != nil {
			log.Warn("failed to save converted record", "stem", stem, "error", err)
			continue
		}
		converted++
	}

	log.Info("legacy conversion finished", "converted", converted)
	return converted, nil
}

func findLegacyImage(imageDir, stem string) (string, bool) {
	for _, ext := range legacyExtensions {
		candidate := filepath.Join(imageDir, stem+ext)
		if utils.FileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func buildLegacyRecord(jsonPath, imgPath, boneDir, stem string, log *logging.Logger) (*annotation.Record, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var legacy legacyKeypointFile
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}

	width, height, err := imageio.Dimensions(imgPath)
	if err != nil {
		return nil, err
	}

	rec := &annotation.Record{
		FileName: filepath.Base(imgPath),
		Width:    width,
		Height:   height,
	}
	rec.EnsureDefaults()

	for _, tuple := range legacy.BBoxes {
		if len(tuple) != 4 {
			continue
		}
		obb := geometry.FromLegacy(tuple[0], tuple[1], tuple[2], tuple[3])
		rec.BBoxes = append(rec.BBoxes, annotation.BoundingBox{
			CX:     obb.CX,
			CY:     obb.CY,
			Width:  obb.Width,
			Height: obb.Height,
			Label:  "Tooth",
		})
	}

	for _, tuple := range legacy.CEJPoints {
		if len(tuple) == 2 {
			rec.Points = append(rec.Points, annotation.Point{X: tuple[0], Y: tuple[1], Class: annotation.ClassCEJ})
		}
	}
	for _, tuple := range legacy.ApexPoints {
		if len(tuple) == 2 {
			rec.Points = append(rec.Points, annotation.Point{X: tuple[0], Y: tuple[1], Class: annotation.ClassAPEX})
		}
	}

	if boneDir != "" {
		bonePath := filepath.Join(boneDir, stem+".json")
		if utils.FileExists(bonePath) {
			if lines, err := readLegacyBoneLines(bonePath); err != nil {
				log.Warn("failed to read legacy bone lines", "stem", stem, "error", err)
			} else {
				rec.BoneLines = lines
			}
		}
	}

	syncBoneEndpoints(rec)
	return rec, nil
}

func readLegacyBoneLines(path string) ([]annotation.BoneLine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var bone legacyBoneFile
	if err := json.Unmarshal(data, &bone); err != nil {
		return nil, err
	}

	lines := []annotation.BoneLine{}
	for _, raw := range bone.BoneLines {
		line := annotation.BoneLine{}
		for _, tuple := range raw {
			if len(tuple) == 2 {
				line = append(line, annotation.Vertex{X: tuple[0], Y: tuple[1]})
			}
		}
		if len(line) > 0 {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// syncBoneEndpoints guarantees that the first and last vertex of every
// bone line is represented by a CREST point, synthesizing one when no
// existing CREST point lies within the match tolerance.
func syncBoneEndpoints(rec *annotation.Record) {
	for _, line := range rec.BoneLines {
		if len(line) == 0 {
			continue
		}
		for _, endpoint := range []annotation.Vertex{line[0], line[len(line)-1]} {
			if hasCrestNear(rec, endpoint) {
				continue
			}
			rec.Points = append(rec.Points, annotation.Point{
				X:     endpoint.X,
				Y:     endpoint.Y,
				Class: annotation.ClassCREST,
			})
		}
	}
}

func hasCrestNear(rec *annotation.Record, v annotation.Vertex) bool {
	for _, p := range rec.Points {
		if p.Class != annotation.ClassCREST {
			continue
		}
		if math.Hypot(p.X-v.X, p.Y-v.Y) < crestMatchTolerance {
			return true
		}
	}
	return false
}
