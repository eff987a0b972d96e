// Package web renders the browser UI for uploading and browsing songs.
//
// # Page
//
// GET / renders templates/index.html with:
//   - an upload form (title + .mp3 file) posting to /upload with fetch
//   - a search box filtering the list by case-insensitive title substring
//   - the song list, each with an audio player, its URL and a copy button
//   - the in-game hint "/streammusic {url}"
//
// # Search
//
// The query parameter q pre-filters the list on the server with [models.Filter], so search works without
// JavaScript. With JavaScript enabled the same rule runs on every keystroke.
//
// # State
//
// The handler holds no state of its own; every render reads the [models.Catalog].
package web

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songdrop/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").ParseFS(templateFS, "templates/index.html"))

// MaxUploadNote is shown under the upload form.
const MaxUploadNote = "MP3 files only, up to 25MB"

// PageData is the template input for the index page.
type PageData struct {
	Songs []models.Song
	Query string
	Total int
	Note  string
}

// Handler renders the index page.
type Handler struct {
	catalog models.Catalog
	logger  *log.Logger
	note    string
}

// NewHandler creates a [Handler] reading songs from catalog.
func NewHandler(catalog models.Catalog, logger *log.Logger) *Handler {
	return &Handler{catalog: catalog, logger: logger, note: MaxUploadNote}
}

// WithNote overrides the note rendered under the upload form.
func (h *Handler) WithNote(note string) *Handler {
	h.note = note
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	songs, err := h.catalog.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list songs for page", "error", err)
		http.Error(w, "could not load songs", http.StatusInternalServerError)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	data := PageData{
		Songs: models.Filter(songs, query),
		Query: query,
		Total: len(songs),
		Note:  h.note,
	}

	var buf bytes.Buffer
	if err := Render(&buf, data); err != nil {
		h.logger.Error("failed to render page", "error", err)
		http.Error(w, "could not render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// Render executes the index template into w.
func Render(w io.Writer, data PageData) error {
	return pageTemplate.Execute(w, data)
}
