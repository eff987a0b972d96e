// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/songdrop/internal/models"
)

// MockCatalog is an in-memory [models.Catalog] test double with injectable failures.
type MockCatalog struct {
	mu        sync.Mutex
	Songs     []models.Song
	ListErr   error
	AppendErr error
	Appends   int
}

func (m *MockCatalog) List(ctx context.Context) ([]models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]models.Song, len(m.Songs))
	copy(out, m.Songs)
	return out, nil
}

func (m *MockCatalog) Append(ctx context.Context, title, url string) (models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return models.Song{}, m.AppendErr
	}
	m.Appends++
	song, err := models.NewSong(int64(len(m.Songs)+1), title, url, time.Now())
	if err != nil {
		return models.Song{}, err
	}
	m.Songs = append([]models.Song{song}, m.Songs...)
	return song, nil
}

// MemoryStore keeps stored files in a map and serves them from BaseURL.
type MemoryStore struct {
	mu        sync.Mutex
	BaseURL   string
	Files     map[string][]byte
	Err       error
	DeleteErr error
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{BaseURL: baseURL, Files: map[string][]byte{}}
}

func (m *MemoryStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files[name] = data
	return m.BaseURL + name, nil
}

func (m *MemoryStore) Delete(ctx context.Context, name string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Files, name)
	return nil
}

func (m *MemoryStore) Describe() string { return "Files kept in memory" }

// Len returns the number of stored files.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Files)
}

// MultipartFile is a file part for [MultipartBody].
type MultipartFile struct {
	Field    string
	Name     string
	Contents string
}

// MultipartBody encodes fields then files as a multipart/form-data body and returns it with its Content-Type.
func MultipartBody(t *testing.T, fields map[string]string, files ...MultipartFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			t.Fatalf("failed to write field %s: %v", k, err)
		}
	}

	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		if _, err := io.WriteString(part, f.Contents); err != nil {
			t.Fatalf("failed to write file part: %v", err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}

// NewUploadRequest builds a POST request carrying a multipart upload with the given title and file.
func NewUploadRequest(t *testing.T, target, title, filename, contents string) *http.Request {
	t.Helper()
	fields := map[string]string{}
	if title != "" {
		fields["title"] = title
	}
	var files []MultipartFile
	if filename != "" {
		files = append(files, MultipartFile{Field: "file", Name: filename, Contents: contents})
	}
	body, contentType := MultipartBody(t, fields, files...)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	return req
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
