// Package storage handles persistence of uploaded proof documents and images.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage saves uploaded files and returns durable URLs for the docs rows.
type Storage interface {
	Save(file *multipart.FileHeader, folder string) (string, error)
}

// LocalStorage writes files under a base directory and serves them from a
// static route. Good enough for single-node deployments; cloud storage can
// implement the same interface.
type LocalStorage struct {
	BaseDir string
	BaseURL string
}

func NewLocalStorage(baseDir, baseURL string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStorage) Save(file *multipart.FileHeader, folder string) (string, error) {
	dir := filepath.Join(s.BaseDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	ext := filepath.Ext(file.Filename)
	name := uuid.New().String() + ext
	dst := filepath.Join(dir, name)

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = src.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return s.BaseURL + "/" + folder + "/" + name, nil
}
