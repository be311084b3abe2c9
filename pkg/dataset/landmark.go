package dataset

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/perioscan/perioscan/internal/utils"
	"github.com/perioscan/perioscan/pkg/annotation"
	"github.com/perioscan/perioscan/pkg/geometry"
	"github.com/perioscan/perioscan/pkg/imageio"
)

// ROIPoint is a landmark retained inside one ROI, with both its ROI-local
// and its original image-space coordinates.
type ROIPoint struct {
	Class   string  `json:"class"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	GlobalX float64 `json:"global_x"`
	GlobalY float64 `json:"global_y"`
}

// ROIBox is the originating box geometry recorded with each ROI entry.
type ROIBox struct {
	CX       float64 `json:"cx"`
	CY       float64 `json:"cy"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

// ROIEntry is one manifest entry of the second-stage landmark dataset.
type ROIEntry struct {
	FileName      string     `json:"file_name"`
	Width         float64    `json:"width"`
	Height        float64    `json:"height"`
	Points        []ROIPoint `json:"points"`
	OriginalImage string     `json:"original_image"`
	BBox          ROIBox     `json:"bbox"`
}

// exportLandmarks crops one rotation-corrected ROI per box for every
// record that has boxes, remaps the record's points into each ROI, and
// returns the manifest entries in record order. Per-record failures are
// logged and skipped. Entries are buffered per record slot and merged
// after all workers finish, so output order is deterministic regardless
// of worker count.
func (e *Exporter) exportLandmarks(ctx context.Context, records []*annotation.Record, landmarkDir string) ([]ROIEntry, error) {
	results := make([][]ROIEntry, len(records))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			if len(rec.BBoxes) == 0 {
				return nil
			}
			src := e.store.ImagePath(rec.FileName)
			if !utils.FileExists(src) {
				e.log.Warn("skipping record with missing source image", "file", rec.FileName)
				return nil
			}

			img, err := imageio.Load(src)
			if err != nil {
				e.log.Warn("skipping undecodable image", "file", rec.FileName, "error", err)
				return nil
			}

			entries := make([]ROIEntry, 0, len(rec.BBoxes))
			for idx, box := range rec.BBoxes {
				obb := box.Geometry()
				roi := imageio.ExtractRotatedROI(img, obb)

				roiName := fmt.Sprintf("%s_roi_%d.%s", utils.Stem(rec.FileName), idx, e.opts.ROIFormat)
				roiPath := filepath.Join(landmarkDir, "rois", roiName)
				if err := imageio.Save(roi, roiPath, e.opts.JPEGQuality); err != nil {
					e.log.Warn("failed to save ROI crop", "file", rec.FileName, "roi", roiName, "error", err)
					continue
				}

				points := []ROIPoint{}
				for _, pt := range rec.Points {
					rx, ry := geometry.ToROILocal(pt.X, pt.Y, obb)
					if !geometry.InROI(rx, ry, obb.Width, obb.Height) {
						continue
					}
					points = append(points, ROIPoint{
						Class:   pt.Class,
						X:       rx,
						Y:       ry,
						GlobalX: pt.X,
						GlobalY: pt.Y,
					})
				}

				entries = append(entries, ROIEntry{
					FileName:      roiName,
					Width:         obb.Width,
					Height:        obb.Height,
					Points:        points,
					OriginalImage: rec.FileName,
					BBox: ROIBox{
						CX:       obb.CX,
						CY:       obb.CY,
						Width:    obb.Width,
						Height:   obb.Height,
						Rotation: obb.Rotation,
					},
				})
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := []ROIEntry{}
	for _, entries := range results {
		merged = append(merged, entries...)
	}
	return merged, nil
}
