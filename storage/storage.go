// Package storage is the durable persistence collaborator: named binary
// blobs in, stable reference URLs out.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage is the only interface the rest of the pipeline depends on. A write
// succeeds or fails as a whole; no partial blobs are ever referenced.
type Storage interface {
	Save(name string, r io.Reader) (string, error)
	Delete(ref string) error
}

// LocalStorage keeps blobs on disk and serves them under BaseURL/uploads/.
type LocalStorage struct {
	UploadDir string
	BaseURL   string
}

func NewLocalStorage(uploadDir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", uploadDir, err)
	}
	return &LocalStorage{UploadDir: uploadDir, BaseURL: baseURL}, nil
}

// Save writes the blob under a uuid-based object name derived from name's
// extension and returns the stable URL. The write goes to a temp file first
// so a failed copy never leaves a referenced partial blob.
func (s *LocalStorage) Save(name string, r io.Reader) (string, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		ext = ".bin"
	}
	objectName := uuid.New().String() + ext
	finalPath := filepath.Join(s.UploadDir, objectName)

	tmp, err := os.CreateTemp(s.UploadDir, "incoming-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	return fmt.Sprintf("%s/uploads/%s", s.BaseURL, objectName), nil
}

// Delete removes the blob behind a reference previously returned by Save.
func (s *LocalStorage) Delete(ref string) error {
	idx := strings.LastIndex(ref, "/uploads/")
	if idx < 0 {
		return fmt.Errorf("unrecognized storage reference: %s", ref)
	}
	objectName := ref[idx+len("/uploads/"):]
	if objectName == "" || strings.Contains(objectName, "/") {
		return fmt.Errorf("unrecognized storage reference: %s", ref)
	}
	return os.Remove(filepath.Join(s.UploadDir, objectName))
}
