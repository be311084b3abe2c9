package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/perioscan/perioscan/internal/logging"
	"github.com/perioscan/perioscan/internal/utils"
	"github.com/perioscan/perioscan/pkg/annotation"
	"github.com/perioscan/perioscan/pkg/geometry"
)

// Export layout directory names.
const (
	DetectionDirName = "bbox_dataset"
	LandmarkDirName  = "landmark_dataset"
	HeldOutDirName   = "test_images"

	SplitTrain = "train"
	SplitVal   = "val"
)

// Options configures a dataset export.
type Options struct {
	ValSplit    float64
	Seed        int64
	Workers     int
	ROIFormat   string
	JPEGQuality int
}

// DefaultOptions returns the export defaults.
func DefaultOptions() Options {
	return Options{
		ValSplit:    DefaultValSplit,
		Seed:        DefaultSeed,
		Workers:     4,
		ROIFormat:   "png",
		JPEGQuality: 90,
	}
}

// Summary reports what an export produced.
type Summary struct {
	Train     int
	Val       int
	TrainROIs int
	ValROIs   int
	HeldOut   int
	Dest      string
}

func (s Summary) String() string {
	return fmt.Sprintf(
		"export complete: bbox %d train / %d val images, landmark %d train / %d val ROIs, %d held-out images",
		s.Train, s.Val, s.TrainROIs, s.ValROIs, s.HeldOut)
}

// Exporter runs the full conversion: classify, split, export detection
// labels, export landmark ROIs, write manifests, copy held-out images.
type Exporter struct {
	store *annotation.Store
	opts  Options
	log   *logging.Logger
}

// NewExporter creates an exporter over a store.
func NewExporter(store *annotation.Store, opts Options, log *logging.Logger) *Exporter {
	if log == nil {
		log = logging.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ROIFormat == "" {
		opts.ROIFormat = "png"
	}
	return &Exporter{store: store, opts: opts, log: log}
}

// Export converts the store's current on-disk state into the dataset
// layout under dest. Per-image failures are logged and skipped; failures
// to write labels or manifests abort the export.
func (e *Exporter) Export(ctx context.Context, dest string) (Summary, error) {
	files, err := e.store.ScanImages()
	if err != nil {
		return Summary{}, err
	}

	cls, err := Classify(e.store, files, e.log)
	if err != nil {
		return Summary{}, err
	}
	train, val := Split(cls.Trainable, e.opts.ValSplit, e.opts.Seed)

	dest, err = filepath.Abs(dest)
	if err != nil {
		return Summary{}, err
	}
	detectionDir := filepath.Join(dest, DetectionDirName)
	landmarkDir := filepath.Join(dest, LandmarkDirName)
	heldOutDir := filepath.Join(dest, HeldOutDirName)

	for _, dir := range []string{
		filepath.Join(detectionDir, "images", SplitTrain),
		filepath.Join(detectionDir, "images", SplitVal),
		filepath.Join(detectionDir, "labels", SplitTrain),
		filepath.Join(detectionDir, "labels", SplitVal),
		filepath.Join(landmarkDir, "rois"),
		heldOutDir,
	} {
		if err := utils.EnsureDir(dir); err != nil {
			return Summary{}, fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	if err := e.exportDetection(ctx, train, SplitTrain, detectionDir); err != nil {
		return Summary{}, err
	}
	if err := e.exportDetection(ctx, val, SplitVal, detectionDir); err != nil {
		return Summary{}, err
	}

	trainROIs, err := e.exportLandmarks(ctx, train, landmarkDir)
	if err != nil {
		return Summary{}, err
	}
	valROIs, err := e.exportLandmarks(ctx, val, landmarkDir)
	if err != nil {
		return Summary{}, err
	}

	if err := writeStageManifest(filepath.Join(landmarkDir, "stage2_train.json"), trainROIs); err != nil {
		return Summary{}, err
	}
	if err := writeStageManifest(filepath.Join(landmarkDir, "stage2_val.json"), valROIs); err != nil {
		return Summary{}, err
	}
	if err := writeDetectionManifest(detectionDir); err != nil {
		return Summary{}, err
	}

	e.copyHeldOut(cls.HeldOut, heldOutDir)

	summary := Summary{
		Train:     len(train),
		Val:       len(val),
		TrainROIs: len(trainROIs),
		ValROIs:   len(valROIs),
		HeldOut:   len(cls.HeldOut),
		Dest:      dest,
	}
	e.log.Info("dataset export finished",
		"dest", dest,
		"train", summary.Train, "val", summary.Val,
		"train_rois", summary.TrainROIs, "val_rois", summary.ValROIs,
		"held_out", summary.HeldOut)
	return summary, nil
}

// exportDetection copies each record's source image into the split's
// image directory and writes one label file per image. Records whose
// source image is missing are skipped; label write failures abort.
func (e *Exporter) exportDetection(ctx context.Context, records []*annotation.Record, split, detectionDir string) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			src := e.store.ImagePath(rec.FileName)
			if !utils.FileExists(src) {
				e.log.Warn("skipping record with missing source image", "file", rec.FileName)
				return nil
			}

			dst := filepath.Join(detectionDir, "images", split, rec.FileName)
			if err := utils.CopyFile(src, dst); err != nil {
				return fmt.Errorf("failed to copy %s: %w", rec.FileName, err)
			}

			labelPath := filepath.Join(detectionDir, "labels", split, utils.Stem(rec.FileName)+".txt")
			if err := writeFileString(labelPath, e.labelLines(rec)); err != nil {
				return fmt.Errorf("failed to write label for %s: %w", rec.FileName, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// labelLines renders the record's boxes as YOLO-OBB label lines:
// class index followed by the four normalized corners at six decimals.
// Unlabeled boxes are excluded.
func (e *Exporter) labelLines(rec *annotation.Record) string {
	var b strings.Builder
	imgW := float64(rec.Width)
	imgH := float64(rec.Height)

	for _, box := range rec.BBoxes {
		if box.Label == annotation.UnlabeledBox {
			continue
		}
		classIdx, known := annotation.BoxClassIndex(box.Label)
		if !known {
			e.log.Warn("unknown box label, exporting as class 0", "file", rec.FileName, "label", box.Label)
		}

		fmt.Fprintf(&b, "%d", classIdx)
		for _, corner := range geometry.Corners(box.CX, box.CY, box.Width, box.Height, box.Rotation) {
			nx, ny := geometry.NormalizeToUnit(corner.X, corner.Y, imgW, imgH)
			fmt.Fprintf(&b, " %.6f %.6f", nx, ny)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// copyHeldOut copies every held-out image into the flat holding
// directory. Missing sources are skipped; copy failures are logged but do
// not abort, since the held-out set is advisory.
func (e *Exporter) copyHeldOut(files []string, heldOutDir string) {
	for _, name := range files {
		src := e.store.ImagePath(name)
		if !utils.FileExists(src) {
			continue
		}
		if err := utils.CopyFile(src, filepath.Join(heldOutDir, name)); err != nil {
			e.log.Warn("failed to copy held-out image", "file", name, "error", err)
		}
	}
}
