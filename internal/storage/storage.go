// package storage persists uploaded song bytes and returns the public URL they are served from.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songdrop/internal/shared"
)

// Store writes a named file and reports where it can be fetched.
type Store interface {
	// Put stores the contents of r under name and returns its fully-qualified URL.
	// Failures wrap [shared.ErrStorage] and may be retried.
	Put(ctx context.Context, name string, r io.Reader) (string, error)

	// Delete removes a previously stored file. Deleting a missing file is not an error.
	Delete(ctx context.Context, name string) error

	// Describe returns a short human-readable note about where files end up.
	Describe() string
}

// New returns the store selected by config, wrapped with retries.
func New(config *shared.Config, client *http.Client, logger *log.Logger) (Store, error) {
	var store Store

	switch config.Storage.Backend {
	case shared.StorageLocal, "":
		fs, err := NewFileStore(config.Storage.Dir, config.MediaBaseURL())
		if err != nil {
			return nil, err
		}
		store = fs
	case shared.StorageGitHub:
		store = NewGitHubStore(config.Storage.GitHub, client)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", shared.ErrInvalidConfig, config.Storage.Backend)
	}

	return NewRetrying(store, config.Storage.MaxAttempts, config.Storage.RetryDelay.Duration, logger), nil
}

// validName rejects names that could escape the target directory or path.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: invalid file name %q", shared.ErrInvalidArgument, name)
	}
	return nil
}
