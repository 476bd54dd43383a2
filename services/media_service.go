// services/media_service.go
package services

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MediaStore stores entry media (gate camera stills). Delete exists so a
// failed entry creation can roll back an already-uploaded file.
type MediaStore interface {
	Upload(b64 string, subdir string) (string, error)
	Delete(path string) error
}

// LocalMediaStore writes media under BaseDir (default ./uploads) and is the
// stand-in for an object store in single-node deployments.
type LocalMediaStore struct {
	BaseDir string
}

func NewLocalMediaStore(baseDir string) *LocalMediaStore {
	if strings.TrimSpace(baseDir) == "" {
		baseDir = "uploads"
	}
	return &LocalMediaStore{BaseDir: baseDir}
}

func (s *LocalMediaStore) Upload(b64 string, subdir string) (string, error) {
	if idx := strings.Index(b64, "base64,"); idx >= 0 {
		b64 = b64[idx+7:]
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}

	dir := filepath.Join(s.BaseDir, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("mkdir uploads dir: %w", err)
	}

	filename := fmt.Sprintf("%s.jpg", uuid.NewString())
	fullpath := filepath.Join(dir, filename)

	if err := os.WriteFile(fullpath, data, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	// stored in DB as "entries/xxx.jpg"
	return filepath.ToSlash(filepath.Join(subdir, filename)), nil
}

func (s *LocalMediaStore) Delete(path string) error {
	clean := filepath.Clean(strings.TrimSpace(path))
	if clean == "" || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("invalid media path %q", path)
	}
	full := filepath.Join(s.BaseDir, clean)
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove media: %w", err)
	}
	return nil
}
