package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidName = errors.New("invalid file name")

// LocalStorage writes tracks into a directory on the local filesystem
type LocalStorage struct {
	outputDir string
}

// NewLocalStorage creates the output directory if needed
func NewLocalStorage(outputDir string) (*LocalStorage, error) {
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", outputDir, err)
	}

	return &LocalStorage{outputDir: outputDir}, nil
}

// Dir returns the output directory
func (s *LocalStorage) Dir() string {
	return s.outputDir
}

// Save writes r to a temporary file and renames it into place, so a partial
// download never shows up under its final name. Existing files are replaced.
func (s *LocalStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.outputDir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, &contextReader{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}

	finalPath := filepath.Join(s.outputDir, name)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", name, err)
	}

	return finalPath, nil
}

func (s *LocalStorage) Close() error {
	return nil
}

// validateName rejects names that would escape the output directory
func validateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "\x00") {
		return ErrInvalidName
	}
	return nil
}

// contextReader stops a copy once ctx is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
