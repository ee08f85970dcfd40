package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"vision-board-backend/internal/models"
)

// Area is the local directory uploads pass through before they reach the
// media store. Nothing in it outlives a pipeline run except after a crash.
type Area struct {
	dir string
}

func NewArea(dir string) (*Area, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create staging dir: %w", err)
	}
	return &Area{dir: dir}, nil
}

func (a *Area) Dir() string {
	return a.dir
}

// Save writes data under <userId>-<uuid><ext>.
func (a *Area) Save(userID uuid.UUID, originalName, mimeType string, data []byte) (*models.UploadedFile, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	storedName := fmt.Sprintf("%s-%s%s", userID.String(), uuid.New().String(), ext)
	localPath := filepath.Join(a.dir, storedName)

	if err := os.WriteFile(localPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to stage %s: %w", originalName, err)
	}

	return &models.UploadedFile{
		OriginalName: originalName,
		StoredName:   storedName,
		LocalPath:    localPath,
		Size:         int64(len(data)),
		MimeType:     mimeType,
	}, nil
}

func (a *Area) Read(file *models.UploadedFile) ([]byte, error) {
	data, err := os.ReadFile(file.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged file %s: %w", file.StoredName, err)
	}
	return data, nil
}

// Remove deletes a staged file. A file that is already gone is not an error.
func (a *Area) Remove(file *models.UploadedFile) error {
	if err := os.Remove(file.LocalPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove staged file %s: %w", file.StoredName, err)
	}
	return nil
}

// Sweep removes regular files last modified before now-olderThan and returns
// how many were deleted.
func (a *Area) Sweep(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list staging dir: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	var errs []error
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(a.dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
