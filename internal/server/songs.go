package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songdrop/internal/models"
	"github.com/desertthunder/songdrop/internal/shared"
)

const msgMissingData = "Missing data"

// SongsHandler serves the catalog over /songs.
type SongsHandler struct {
	catalog models.Catalog
	logger  *log.Logger
}

// SongRequest is the body accepted by POST /songs, as JSON or form fields.
type SongRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SongCreated is the response to a successful POST /songs.
type SongCreated struct {
	Success bool        `json:"success"`
	Song    models.Song `json:"song"`
}

func NewSongsHandler(catalog models.Catalog, logger *log.Logger) *SongsHandler {
	return &SongsHandler{catalog: catalog, logger: logger}
}

// List writes every song, newest first.
func (h *SongsHandler) List(w http.ResponseWriter, r *http.Request) {
	songs, err := h.catalog.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list songs", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// Create appends a song with an already-hosted URL.
func (h *SongsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSongRequest(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, msgMissingData)
		return
	}

	song, err := h.catalog.Append(r.Context(), req.Title, req.URL)
	switch {
	case errors.Is(err, shared.ErrValidation):
		writeError(w, http.StatusBadRequest, msgMissingData)
		return
	case err != nil:
		h.logger.Error("failed to add song", "title", req.Title, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("song added", "id", song.ID, "title", song.Title)
	writeJSON(w, http.StatusOK, SongCreated{Success: true, Song: song})
}

func decodeSongRequest(r *http.Request) (SongRequest, error) {
	var req SongRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("invalid JSON body: %w", err)
		}
	default:
		if err := r.ParseForm(); err != nil {
			return req, fmt.Errorf("invalid form body: %w", err)
		}
		req.Title = r.PostForm.Get("title")
		req.URL = r.PostForm.Get("url")
	}
	return req, nil
}
