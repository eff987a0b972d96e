package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/songdrop/internal/models"
	"github.com/desertthunder/songdrop/internal/shared"
)

// SongRepository implements [models.Catalog] on the songs table.
//
// Appends are serialized in-process so the sequence increment and insert never interleave between writers sharing the repository.
type SongRepository struct {
	db      *sql.DB
	mu      sync.Mutex
	stamper *shared.Stamper
	now     func() time.Time
}

// NewSongRepository creates a new SongRepository with the given database connection. A nil stamper uses the wall clock.
func NewSongRepository(db *sql.DB, stamper *shared.Stamper) *SongRepository {
	if stamper == nil {
		stamper = shared.NewStamper()
	}
	return &SongRepository{db: db, stamper: stamper, now: time.Now}
}

// Append inserts a new song with a generated id and sequence
func (r *SongRepository) Append(ctx context.Context, title, url string) (models.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	song, err := models.NewSong(r.stamper.Next(), title, url, r.now())
	if err != nil {
		return models.Song{}, fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Song{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(ctx, tx, "songs")
	if err != nil {
		return models.Song{}, fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := `
		INSERT INTO songs (id, sequence, title, url, uploaded_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := tx.ExecContext(ctx, query, song.ID, sequence, song.Title, song.URL, song.UploadedAt); err != nil {
		return models.Song{}, fmt.Errorf("failed to insert song: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Song{}, fmt.Errorf("failed to commit song: %w", err)
	}

	return song, nil
}

// List retrieves all songs, newest first
func (r *SongRepository) List(ctx context.Context) ([]models.Song, error) {
	query := `
		SELECT id, title, url, uploaded_at
		FROM songs
		ORDER BY sequence DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		var song models.Song
		if err := rows.Scan(&song.ID, &song.Title, &song.URL, &song.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		song.UploadedAt = song.UploadedAt.UTC()
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}
