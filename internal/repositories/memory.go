package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/desertthunder/songdrop/internal/models"
	"github.com/desertthunder/songdrop/internal/shared"
)

// MemoryCatalog implements [models.Catalog] with a slice kept newest-first.
//
// Songs live for the lifetime of the value. List hands out copies, so callers never observe a partially applied Append.
type MemoryCatalog struct {
	mu      sync.RWMutex
	songs   []models.Song
	stamper *shared.Stamper
	now     func() time.Time
}

// NewMemoryCatalog creates an empty [MemoryCatalog]. A nil stamper uses the wall clock.
func NewMemoryCatalog(stamper *shared.Stamper) *MemoryCatalog {
	if stamper == nil {
		stamper = shared.NewStamper()
	}
	return &MemoryCatalog{stamper: stamper, now: time.Now}
}

// List returns all songs, most recently added first.
func (c *MemoryCatalog) List(ctx context.Context) ([]models.Song, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	songs := make([]models.Song, len(c.songs))
	copy(songs, c.songs)
	return songs, nil
}

// Append validates and inserts a new song at the front of the catalog.
func (c *MemoryCatalog) Append(ctx context.Context, title, url string) (models.Song, error) {
	if err := ctx.Err(); err != nil {
		return models.Song{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	song, err := models.NewSong(c.stamper.Next(), title, url, c.now())
	if err != nil {
		return models.Song{}, err
	}

	c.songs = append([]models.Song{song}, c.songs...)
	return song, nil
}
