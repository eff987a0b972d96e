package server

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songdrop/internal/intake"
	"github.com/desertthunder/songdrop/internal/shared"
)

const (
	msgUploaded     = "✅ Song uploaded!"
	msgUploadFailed = "Upload failed"
)

// UploadResponse is the body of a successful POST /upload.
type UploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Note    string `json:"note"`
	Indexed bool   `json:"indexed"`
}

// UploadHandler runs multipart uploads through the intake pipeline.
type UploadHandler struct {
	pipeline *intake.Pipeline
	logger   *log.Logger
}

func NewUploadHandler(pipeline *intake.Pipeline, logger *log.Logger) *UploadHandler {
	return &UploadHandler{pipeline: pipeline, logger: logger}
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	result, err := h.pipeline.Process(r.Context(), r)
	if err != nil {
		status, body := uploadError(err)
		if status >= 500 {
			h.logger.Error("upload failed", "error", err, "request_id", RequestIDFrom(r.Context()))
		}
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		URL:     result.URL,
		Title:   result.Title,
		Message: msgUploaded,
		Note:    h.pipeline.Describe(),
		Indexed: result.Indexed,
	})
}

func uploadError(err error) (int, errorResponse) {
	var verr *intake.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorResponse{Error: verr.Message}
	case errors.Is(err, shared.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, errorResponse{Error: msgUploadFailed, Details: "Try a smaller file"}
	case errors.Is(err, shared.ErrStorage):
		return http.StatusInternalServerError, errorResponse{Error: msgUploadFailed, Details: "Could not store the file"}
	case errors.Is(err, shared.ErrIndexing):
		return http.StatusInternalServerError, errorResponse{Error: msgUploadFailed, Details: "File stored but could not be added to the list"}
	default:
		return http.StatusInternalServerError, errorResponse{Error: msgUploadFailed, Details: "Try a smaller file"}
	}
}
