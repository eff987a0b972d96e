// package models defines the data model for the song upload service
package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/songdrop/internal/shared"
)

// Song is one uploaded track. All fields are set at creation and never change.
type Song struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// NewSong builds a validated [Song] with the given id and upload time.
func NewSong(id int64, title, url string, uploadedAt time.Time) (Song, error) {
	song := Song{
		ID:         id,
		Title:      strings.TrimSpace(title),
		URL:        strings.TrimSpace(url),
		UploadedAt: uploadedAt.UTC(),
	}
	if err := song.Validate(); err != nil {
		return Song{}, err
	}
	return song, nil
}

// Validate checks that title and url are present.
func (s Song) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: title is required", shared.ErrValidation)
	}
	if strings.TrimSpace(s.URL) == "" {
		return fmt.Errorf("%w: url is required", shared.ErrValidation)
	}
	return nil
}

// Matches reports whether the song title contains query, ignoring case.
//
// An empty query matches every song.
func (s Song) Matches(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s.Title), strings.ToLower(query))
}

// Catalog is the set of known songs, newest first.
//
// Implementations must make Append atomic with respect to other Append and List calls.
type Catalog interface {
	// List returns every song, most recently added first.
	List(ctx context.Context) ([]Song, error)

	// Append adds a song at the front and returns it.
	// Fails with [shared.ErrValidation] when title or url is empty, leaving the catalog unchanged.
	Append(ctx context.Context, title, url string) (Song, error)
}

// Filter returns the songs whose titles contain query, preserving order.
func Filter(songs []Song, query string) []Song {
	filtered := make([]Song, 0, len(songs))
	for _, s := range songs {
		if s.Matches(query) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
