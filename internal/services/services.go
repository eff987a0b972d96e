// package services defines the [Client] interface for talking to a songdrop server over HTTP
package services

import (
	"context"

	"github.com/desertthunder/songdrop/internal/models"
)

// Client is what the CLI, bulk uploader and TUI need from a songdrop server.
type Client interface {
	// ListSongs returns every song, newest first.
	ListSongs(ctx context.Context) ([]models.Song, error)

	// AddSong records a song whose file is already hosted at url.
	AddSong(ctx context.Context, title, url string) (*models.Song, error)

	// Upload sends the MP3 at path with the given title through POST /upload.
	Upload(ctx context.Context, title, path string) (*UploadResult, error)

	// Health reports whether the server is up and how many songs it holds.
	Health(ctx context.Context) (*HealthStatus, error)
}

// UploadResult mirrors the body of a successful POST /upload.
type UploadResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Note    string `json:"note"`
	Indexed bool   `json:"indexed"`
}

// HealthStatus mirrors the body of GET /healthz.
type HealthStatus struct {
	Status string `json:"status"`
	Songs  int    `json:"songs"`
}
