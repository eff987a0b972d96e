// API client for the songdrop HTTP service
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/songdrop/internal/models"
	"github.com/desertthunder/songdrop/internal/shared"
)

const DefaultServerURL = "http://localhost:3000"

var _ Client = (*APIService)(nil)

// APIService makes requests against a songdrop server and implements [Client].
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the server at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// BaseURL returns the server address requests are sent to.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the response has a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err converts a non-2xx response into an error wrapping [shared.ErrAPIRequest], using the server's
// "error" and "details" fields when present.
func (r *APIResponse) Err() error {
	if r.OK() {
		return nil
	}

	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	msg := strings.TrimSpace(string(r.Body))
	if r.IsJSON && json.Unmarshal(r.Body, &body) == nil && body.Error != "" {
		msg = body.Error
		if body.Details != "" {
			msg += ": " + body.Details
		}
	}
	if msg == "" {
		msg = http.StatusText(r.StatusCode)
	}
	return fmt.Errorf("%w: %s (status %d)", shared.ErrAPIRequest, msg, r.StatusCode)
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return a.do(req)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req)
}

// ListSongs fetches GET /songs.
func (a *APIService) ListSongs(ctx context.Context) ([]models.Song, error) {
	resp, err := a.Get(ctx, "/songs")
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var songs []models.Song
	if err := json.Unmarshal(resp.Body, &songs); err != nil {
		return nil, fmt.Errorf("failed to decode songs: %w", err)
	}
	if songs == nil {
		songs = []models.Song{}
	}
	return songs, nil
}

// AddSong posts a title and URL to POST /songs.
func (a *APIService) AddSong(ctx context.Context, title, url string) (*models.Song, error) {
	data, err := json.Marshal(map[string]string{"title": title, "url": url})
	if err != nil {
		return nil, fmt.Errorf("failed to encode song: %w", err)
	}

	resp, err := a.Post(ctx, "/songs", data)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var created struct {
		Success bool        `json:"success"`
		Song    models.Song `json:"song"`
	}
	if err := json.Unmarshal(resp.Body, &created); err != nil {
		return nil, fmt.Errorf("failed to decode song: %w", err)
	}
	return &created.Song, nil
}

// Upload streams the file at path to POST /upload as multipart form data.
func (a *APIService) Upload(ctx context.Context, title, path string) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUpload(mw, title, filepath.Base(path), f))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/upload", pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := a.do(req)
	pr.Close()
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var result UploadResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode upload result: %w", err)
	}
	return &result, nil
}

// Health fetches GET /healthz.
func (a *APIService) Health(ctx context.Context) (*HealthStatus, error) {
	resp, err := a.Get(ctx, "/healthz")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	var status HealthStatus
	if err := json.Unmarshal(resp.Body, &status); err != nil {
		return nil, fmt.Errorf("failed to decode health status: %w", err)
	}
	return &status, nil
}

func (a *APIService) do(req *http.Request) (*APIResponse, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

func writeUpload(mw *multipart.Writer, title, filename string, r io.Reader) error {
	if err := mw.WriteField("title", title); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	return mw.Close()
}
