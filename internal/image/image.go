package image

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/manash/retouch/internal/security"
	"github.com/manash/retouch/pkg/models"
)

const filenamePrefix = "retouch"

var ErrNothingToSave = errors.New("no image to save")

// Saver writes images below an output directory.
type Saver struct {
	dir string
	now func() time.Time
}

func NewSaver(dir string) *Saver {
	return &Saver{dir: dir, now: time.Now}
}

func (s *Saver) Dir() string {
	return s.dir
}

// Save writes img under name, or under a generated timestamped name when
// name is empty. It returns the path written.
func (s *Saver) Save(img *models.Image, name string) (string, error) {
	if img.Empty() {
		return "", ErrNothingToSave
	}

	if name == "" {
		name = GenerateFilename(s.now(), img.Format())
	}

	path, err := security.ResolveSavePath(s.dir, name)
	if err != nil {
		return "", fmt.Errorf("invalid output path %q: %w", name, err)
	}

	if err := ensureDir(path); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, img.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return path, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// GenerateFilename names a download after the moment it was taken, in
// milliseconds.
func GenerateFilename(t time.Time, format models.OutputFormat) string {
	return fmt.Sprintf("%s-%d.%s", filenamePrefix, t.UnixMilli(), format)
}
