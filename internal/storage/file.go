package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/songdrop/internal/shared"
)

// ErrExists is returned when a file with the same name is already stored.
var ErrExists = errors.New("file already exists")

// FileStore keeps files in a local directory that the server exposes under a base URL.
//
// Writes go to a temporary file first and are linked into place, so a file is either absent or complete.
type FileStore struct {
	dir     string
	baseURL string
}

// NewFileStore creates the directory if needed and returns a [FileStore].
func NewFileStore(dir, baseURL string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: storage dir is required", shared.ErrInvalidConfig)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &FileStore{dir: dir, baseURL: baseURL}, nil
}

// Dir returns the directory files are written to.
func (s *FileStore) Dir() string {
	return s.dir
}

// Put implements [Store].
func (s *FileStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-"+shared.GenerateID()+"-*")
	if err != nil {
		return "", fmt.Errorf("%w: failed to create temp file: %v", shared.ErrStorage, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: failed to write file: %v", shared.ErrStorage, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: failed to sync file: %v", shared.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: failed to close file: %v", shared.ErrStorage, err)
	}

	// Link fails instead of replacing an existing file.
	if err := os.Link(tmpName, filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, name)
		}
		return "", fmt.Errorf("%w: failed to move file into place: %v", shared.ErrStorage, err)
	}

	return s.baseURL + url.PathEscape(name), nil
}

// Delete implements [Store].
func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: failed to remove %s: %v", shared.ErrStorage, name, err)
	}
	return nil
}

// Describe implements [Store].
func (s *FileStore) Describe() string {
	return "Files stored on this server"
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
