package annotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/perioscan/perioscan/internal/logging"
	"github.com/perioscan/perioscan/internal/utils"
)

const (
	// AnnotationDirName is the sibling directory holding per-image JSON
	// files, created under the image root.
	AnnotationDirName = "annotations"

	// AggregateFileName is the reserved name of the combined export; it is
	// skipped when reading back individual records.
	AggregateFileName = "points.json"
)

// ErrRootNotSet is returned by operations that need an image directory
// before SetRoot has succeeded.
var ErrRootNotSet = errors.New("image directory is not set")

// Store loads, caches and persists per-image annotation records. The
// cache is process-local and cleared wholesale when the root changes; it
// is never a source of truth independent of disk.
type Store struct {
	imageDir      string
	annotationDir string
	cache         map[string]*Record
	log           *logging.Logger
}

// NewStore creates an empty store. A nil logger is replaced with a no-op
// logger.
func NewStore(log *logging.Logger) *Store {
	if log == nil {
		log = logging.NewNop()
	}
	return &Store{cache: map[string]*Record{}, log: log}
}

// SetRoot points the store at an image directory, creates the sibling
// annotation directory if absent, clears the cache, and returns the
// sorted image file list. Fails if the path is not a directory.
func (s *Store) SetRoot(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if !utils.DirExists(abs) {
		return nil, fmt.Errorf("image directory %s: %w", path, os.ErrNotExist)
	}

	annotationDir := filepath.Join(abs, AnnotationDirName)
	if err := utils.EnsureDir(annotationDir); err != nil {
		return nil, fmt.Errorf("failed to create annotation directory: %w", err)
	}

	s.imageDir = abs
	s.annotationDir = annotationDir
	s.cache = map[string]*Record{}
	return s.ScanImages()
}

// ScanImages lists the image files directly under the root, filtered to
// the supported extensions and sorted case-insensitively.
func (s *Store) ScanImages() ([]string, error) {
	if s.imageDir == "" {
		return nil, ErrRootNotSet
	}
	entries, err := os.ReadDir(s.imageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.imageDir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !utils.IsImageFile(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(files[i]) < strings.ToLower(files[j])
	})
	return files, nil
}

// ImageDir returns the current root, empty until SetRoot succeeds.
func (s *Store) ImageDir() string {
	return s.imageDir
}

// ImagePath returns the absolute path of an image under the root.
func (s *Store) ImagePath(fileName string) string {
	return filepath.Join(s.imageDir, fileName)
}

// AnnotationPath returns the JSON file path for an image file name.
func (s *Store) AnnotationPath(fileName string) (string, error) {
	if s.annotationDir == "" {
		return "", ErrRootNotSet
	}
	safe := strings.ReplaceAll(fileName, "/", "_")
	return filepath.Join(s.annotationDir, utils.Stem(safe)+".json"), nil
}

// Cached returns the in-memory record for a file name, if present.
func (s *Store) Cached(fileName string) (*Record, bool) {
	rec, ok := s.cache[fileName]
	return rec, ok
}

// Load returns the record for an image: the cached copy if present, the
// persisted JSON if it exists, otherwise a synthesized empty record using
// the fallback dimensions. Synthesized records are cached but not written
// to disk until an explicit Save.
func (s *Store) Load(fileName string, fallbackWidth, fallbackHeight int) (*Record, error) {
	if rec, ok := s.cache[fileName]; ok {
		return rec, nil
	}

	path, err := s.AnnotationPath(fileName)
	if err != nil {
		return nil, err
	}

	if !utils.FileExists(path) {
		rec := &Record{
			FileName: fileName,
			Width:    fallbackWidth,
			Height:   fallbackHeight,
		}
		rec.EnsureDefaults()
		s.cache[fileName] = rec
		return rec, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation %s: %w", path, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse annotation %s: %w", path, err)
	}
	if rec.FileName == "" {
		rec.FileName = fileName
	}
	if rec.Width == 0 {
		rec.Width = fallbackWidth
	}
	if rec.Height == 0 {
		rec.Height = fallbackHeight
	}
	rec.EnsureDefaults()
	s.cache[fileName] = &rec
	return &rec, nil
}

// Save rounds the record's geometry to the persisted precision, writes it
// to its JSON file and updates the cache.
func (s *Store) Save(rec *Record) error {
	path, err := s.AnnotationPath(rec.FileName)
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create annotation directory: %w", err)
	}

	rounded := rec.Rounded()
	data, err := json.MarshalIndent(&rounded, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal annotation %s: %w", rec.FileName, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write annotation %s: %w", path, err)
	}

	s.cache[rec.FileName] = &rounded
	s.log.Debug("annotation saved", "file", rec.FileName, "path", path)
	return nil
}

// ExportAll re-reads every persisted record from disk, sorts them by file
// name and writes the combined {"images": [...]} document. The in-memory
// cache is deliberately bypassed so the export reflects true on-disk
// state.
func (s *Store) ExportAll() (string, error) {
	if s.annotationDir == "" {
		return "", ErrRootNotSet
	}

	records, err := s.loadAllRecords()
	if err != nil {
		return "", err
	}

	payload := struct {
		Images []Record `json:"images"`
	}{Images: records}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal aggregate export: %w", err)
	}

	path := filepath.Join(s.annotationDir, AggregateFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write aggregate export: %w", err)
	}
	s.log.Info("aggregate export written", "path", path, "records", len(records))
	return path, nil
}

func (s *Store) loadAllRecords() ([]Record, error) {
	entries, err := os.ReadDir(s.annotationDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation directory: %w", err)
	}

	records := []Record{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == AggregateFileName || utils.Extension(name) != "json" {
			continue
		}
		path := filepath.Join(s.annotationDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn("skipping unreadable annotation", "path", path, "error", err)
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			s.log.Warn("skipping corrupt annotation", "path", path, "error", err)
			continue
		}
		if rec.FileName == "" {
			rec.FileName = utils.Stem(name)
		}
		rec.EnsureDefaults()
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return strings.ToLower(records[i].FileName) < strings.ToLower(records[j].FileName)
	})
	return records, nil
}
