// Package perioscan manages per-image geometric annotations for dental
// radiographs and converts the accumulated annotation store into training
// datasets.
//
// The model side keeps one JSON record per image holding landmark points
// (CEJ/CREST/APEX), oriented bounding boxes and polyline bone curves; an
// editing front end drives it purely through the annotation.Scene
// hydrate/serialize surface. The export side classifies records by
// annotation completeness, deterministically splits the complete ones
// into train/validation subsets, and emits a YOLO-style oriented-box
// detection dataset plus a second-stage landmark ROI dataset, with every
// incomplete image copied into a held-out set.
//
// Basic usage:
//
//	log, err := logging.New("dev")
//	if err != nil {
//		// handle
//	}
//	p := perioscan.New(log)
//	files, err := p.OpenDirectory("/data/radiographs")
//	if err != nil {
//		// handle
//	}
//	summary, err := p.ExportDatasets(context.Background(), "/data/export", dataset.DefaultOptions())
//
// The heavy lifting lives in pkg/geometry (coordinate transforms),
// pkg/annotation (record model and store), pkg/dataset (classification,
// split, export) and pkg/imageio (decode/encode and rotated ROI
// extraction).
package perioscan

import (
	"context"

	"github.com/perioscan/perioscan/internal/logging"
	"github.com/perioscan/perioscan/pkg/annotation"
	"github.com/perioscan/perioscan/pkg/dataset"
)

// Version of the perioscan library
const Version = "1.0.0"

// Pipeline bundles a store with the export machinery for callers that
// want the whole flow behind one handle.
type Pipeline struct {
	store *annotation.Store
	log   *logging.Logger
}

// New creates a pipeline. A nil logger is replaced with a no-op logger.
func New(log *logging.Logger) *Pipeline {
	if log == nil {
		log = logging.NewNop()
	}
	return &Pipeline{store: annotation.NewStore(log), log: log}
}

// Store exposes the underlying annotation store.
func (p *Pipeline) Store() *annotation.Store {
	return p.store
}

// OpenDirectory points the pipeline at an image directory and returns the
// sorted image list.
func (p *Pipeline) OpenDirectory(path string) ([]string, error) {
	return p.store.SetRoot(path)
}

// Load returns the annotation record for an image.
func (p *Pipeline) Load(fileName string, fallbackWidth, fallbackHeight int) (*annotation.Record, error) {
	return p.store.Load(fileName, fallbackWidth, fallbackHeight)
}

// Save persists an annotation record.
func (p *Pipeline) Save(rec *annotation.Record) error {
	return p.store.Save(rec)
}

// Aggregate writes the combined annotation document and returns its path.
func (p *Pipeline) Aggregate() (string, error) {
	return p.store.ExportAll()
}

// ExportDatasets runs the full dataset conversion into dest.
func (p *Pipeline) ExportDatasets(ctx context.Context, dest string, opts dataset.Options) (dataset.Summary, error) {
	return dataset.NewExporter(p.store, opts, p.log).Export(ctx, dest)
}
