package server

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/desertthunder/songdrop/internal/models"
)

// HealthHandler reports liveness and catalog size.
type HealthHandler struct {
	catalog models.Catalog
}

type healthResponse struct {
	Status string `json:"status"`
	Songs  int    `json:"songs"`
	Error  string `json:"error,omitempty"`
}

func NewHealthHandler(catalog models.Catalog) *HealthHandler {
	return &HealthHandler{catalog: catalog}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	songs, err := h.catalog.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Songs: len(songs)})
}

// MediaHandler serves locally stored uploads under /media/.
type MediaHandler struct {
	files http.Handler
}

func NewMediaHandler(dir string) *MediaHandler {
	return &MediaHandler{files: http.StripPrefix("/media/", http.FileServer(noListing{http.Dir(dir)}))}
}

func (h *MediaHandler) Routes() []string {
	return []string{"/media/"}
}

func (h *MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if r.URL.Path == "/media/" || strings.HasSuffix(r.URL.Path, "/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	h.files.ServeHTTP(w, r)
}

// noListing hides directories and dotfiles (in-progress temp files) from the file server.
type noListing struct {
	fs http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return nil, fs.ErrNotExist
		}
	}
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

// NotFoundHandler answers unmatched paths with a JSON 404.
type NotFoundHandler struct{}

func (NotFoundHandler) Routes() []string {
	return []string{"/"}
}

func (NotFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}
