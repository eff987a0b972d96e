package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songdrop/internal/shared"
)

// Retrying wraps a [Store] and retries [shared.ErrStorage] failures a bounded number of times.
//
// Retries need to replay the upload, so readers that are not [io.Seeker]s are buffered in memory first.
type Retrying struct {
	store    Store
	attempts int
	delay    time.Duration
	logger   *log.Logger
}

// NewRetrying creates a [Retrying] store. attempts below 1 is treated as 1 and a nil logger discards output.
func NewRetrying(store Store, attempts int, delay time.Duration, logger *log.Logger) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Retrying{store: store, attempts: attempts, delay: delay, logger: logger}
}

// Put implements [Store].
func (s *Retrying) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	rs, err := seekable(r, s.attempts)
	if err != nil {
		return "", fmt.Errorf("%w: failed to buffer upload: %v", shared.ErrStorage, err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if rs != nil && attempt > 1 {
			if _, err := rs.Seek(0, io.SeekStart); err != nil {
				return "", fmt.Errorf("%w: failed to rewind upload: %v", shared.ErrStorage, err)
			}
		}

		var body io.Reader = r
		if rs != nil {
			body = rs
		}

		url, err := s.store.Put(ctx, name, body)
		if err == nil {
			return url, nil
		}
		lastErr = err

		if !errors.Is(err, shared.ErrStorage) || attempt == s.attempts {
			break
		}

		s.logger.Warn("storage write failed, retrying", "file", name, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", shared.ErrStorage, ctx.Err())
		case <-time.After(s.delay * time.Duration(attempt)):
		}
	}

	return "", lastErr
}

// Delete implements [Store]. Deletes are not retried.
func (s *Retrying) Delete(ctx context.Context, name string) error {
	return s.store.Delete(ctx, name)
}

// Describe implements [Store].
func (s *Retrying) Describe() string {
	return s.store.Describe()
}

// seekable returns r as an [io.ReadSeeker], buffering it when retries are possible.
// Returns nil when a single attempt is configured and r can't seek.
func seekable(r io.Reader, attempts int) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	if attempts == 1 {
		return nil, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}
