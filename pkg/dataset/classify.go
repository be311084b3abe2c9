// Package dataset converts the annotation store into the two derived
// training datasets and the held-out set: a YOLO-style oriented-box
// detection dataset, a second-stage landmark ROI dataset, and a flat copy
// of every image that does not meet the annotation completeness bar.
package dataset

import (
	"github.com/perioscan/perioscan/internal/logging"
	"github.com/perioscan/perioscan/internal/utils"
	"github.com/perioscan/perioscan/pkg/annotation"
	"github.com/perioscan/perioscan/pkg/imageio"
)

// Classification partitions the scanned images into records complete
// enough to train on and file names held out as unreviewed.
type Classification struct {
	Trainable []*annotation.Record
	HeldOut   []string
}

// Trainable reports whether a record meets the completeness bar: at least
// one bounding box, one CREST point and one CEJ point.
func Trainable(rec *annotation.Record) bool {
	return len(rec.BBoxes) > 0 &&
		rec.HasPointClass(annotation.ClassCREST) &&
		rec.HasPointClass(annotation.ClassCEJ)
}

// Classify walks the image list and partitions it. Images without an
// annotation file, with incomplete annotations, or whose annotation or
// image fails to load are held out; load failures are logged, never
// propagated.
func Classify(store *annotation.Store, files []string, log *logging.Logger) (Classification, error) {
	if log == nil {
		log = logging.NewNop()
	}

	var out Classification
	for _, name := range files {
		path, err := store.AnnotationPath(name)
		if err != nil {
			return Classification{}, err
		}
		if !utils.FileExists(path) {
			out.HeldOut = append(out.HeldOut, name)
			continue
		}

		rec, ok := store.Cached(name)
		if !ok {
			w, h, err := imageio.Dimensions(store.ImagePath(name))
			if err != nil {
				log.Warn("holding out undecodable image", "file", name, "error", err)
				out.HeldOut = append(out.HeldOut, name)
				continue
			}
			rec, err = store.Load(name, w, h)
			if err != nil {
				log.Warn("holding out image with unreadable annotation", "file", name, "error", err)
				out.HeldOut = append(out.HeldOut, name)
				continue
			}
		}

		if Trainable(rec) {
			out.Trainable = append(out.Trainable, rec)
		} else {
			out.HeldOut = append(out.HeldOut, name)
		}
	}
	return out, nil
}
