package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/perioscan/perioscan/pkg/annotation"
)

// detectionManifest is the data.yaml document a YOLO-style oriented
// detection trainer consumes: dataset root, split image paths, and the
// ordered class names with the reserved Unlabeled entry excluded.
type detectionManifest struct {
	Path  string         `yaml:"path"`
	Train string         `yaml:"train"`
	Val   string         `yaml:"val"`
	Names map[int]string `yaml:"names"`
}

func writeDetectionManifest(detectionDir string) error {
	names := map[int]string{}
	idx := 0
	for _, class := range annotation.BoxClasses {
		if class == annotation.UnlabeledBox {
			continue
		}
		names[idx] = class
		idx++
	}

	data, err := yaml.Marshal(detectionManifest{
		Path:  detectionDir,
		Train: filepath.Join("images", SplitTrain),
		Val:   filepath.Join("images", SplitVal),
		Names: names,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal detection manifest: %w", err)
	}

	path := filepath.Join(detectionDir, "data.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write detection manifest: %w", err)
	}
	return nil
}

// writeStageManifest writes one second-stage landmark document,
// {"images": [...]}, for a split.
func writeStageManifest(path string, entries []ROIEntry) error {
	if entries == nil {
		entries = []ROIEntry{}
	}
	payload := struct {
		Images []ROIEntry `json:"images"`
	}{Images: entries}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeFileString writes label text; empty content still produces the
// file so every exported image has its label sibling.
func writeFileString(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
