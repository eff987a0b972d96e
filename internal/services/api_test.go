package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/songdrop/internal/models"
	"github.com/desertthunder/songdrop/internal/shared"
	tu "github.com/desertthunder/songdrop/internal/testing"
)

func jsonServer(t *testing.T, status int, body any, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/", customClient)

			if srv.BaseURL() != "http://example.com" {
				t.Errorf("expected trailing slash to be trimmed, got %s", srv.BaseURL())
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Defaults", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.BaseURL() != DefaultServerURL {
				t.Errorf("expected default baseURL, got %s", srv.BaseURL())
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("JSON Response", func(t *testing.T) {
			server := jsonServer(t, http.StatusOK, map[string]string{"status": "ok"}, func(r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/healthz" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
			})

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/healthz")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.IsJSON || resp.JSONData.(map[string]any)["status"] != "ok" {
				t.Errorf("expected decoded JSON, got %+v", resp.JSONData)
			}
		})

		t.Run("Non-JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Custom-Header", "test-value")
				w.Write([]byte("plain text response"))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON || resp.JSONData != nil {
				t.Error("expected response to not be JSON")
			}
			if string(resp.Body) != "plain text response" {
				t.Errorf("unexpected body %s", resp.Body)
			}
			if resp.Headers.Get("X-Custom-Header") != "test-value" {
				t.Error("expected headers to be preserved")
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			_, err := NewAPIService("http://example.com", nil).Get(context.Background(), "/test\x00invalid")
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}

			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test")
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}

			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test")
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := jsonServer(t, http.StatusOK, nil, nil)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := NewAPIService(server.URL, nil).Get(ctx, "/"); err == nil {
				t.Error("expected error for canceled context")
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		t.Run("Sends JSON", func(t *testing.T) {
			server := jsonServer(t, http.StatusCreated, map[string]string{"id": "123"}, func(r *http.Request) {
				if r.Header.Get("Content-Type") != "application/json" {
					t.Errorf("expected JSON content type, got %s", r.Header.Get("Content-Type"))
				}
				body, _ := io.ReadAll(r.Body)
				if string(body) != `{"test":"data"}` {
					t.Errorf("unexpected body %s", body)
				}
			})

			resp, err := NewAPIService(server.URL, nil).Post(context.Background(), "/test", []byte(`{"test":"data"}`))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusCreated || !resp.OK() {
				t.Errorf("expected 201, got %d", resp.StatusCode)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}

			_, err := NewAPIService("http://example.com", client).Post(context.Background(), "/test", nil)
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})
	})

	t.Run("APIResponse", func(t *testing.T) {
		tests := []struct {
			name string
			resp APIResponse
			want string
		}{
			{
				name: "Error Field",
				resp: APIResponse{StatusCode: 400, Body: []byte(`{"error":"Missing data"}`), IsJSON: true},
				want: "Missing data (status 400)",
			},
			{
				name: "Error And Details",
				resp: APIResponse{StatusCode: 413, Body: []byte(`{"error":"Upload failed","details":"Try a smaller file"}`), IsJSON: true},
				want: "Upload failed: Try a smaller file (status 413)",
			},
			{
				name: "Plain Body",
				resp: APIResponse{StatusCode: 502, Body: []byte("bad gateway\n")},
				want: "bad gateway (status 502)",
			},
			{
				name: "Empty Body",
				resp: APIResponse{StatusCode: 404},
				want: "Not Found (status 404)",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.resp.Err()
				if !errors.Is(err, shared.ErrAPIRequest) {
					t.Fatalf("expected ErrAPIRequest, got %v", err)
				}
				if !strings.HasSuffix(err.Error(), tt.want) {
					t.Errorf("expected error ending in %q, got %q", tt.want, err.Error())
				}
			})
		}

		t.Run("2xx Has No Error", func(t *testing.T) {
			resp := APIResponse{StatusCode: 204}
			if err := resp.Err(); err != nil {
				t.Errorf("expected nil, got %v", err)
			}
		})
	})
}

func TestClient(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("ListSongs", func(t *testing.T) {
		t.Run("Decodes Songs", func(t *testing.T) {
			songs := []models.Song{
				{ID: 2, Title: "Newer", URL: "https://x/b.mp3", UploadedAt: now},
				{ID: 1, Title: "Older", URL: "https://x/a.mp3", UploadedAt: now},
			}
			server := jsonServer(t, http.StatusOK, songs, nil)

			got, err := NewAPIService(server.URL, nil).ListSongs(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != 2 || got[0].Title != "Newer" || !got[0].UploadedAt.Equal(now) {
				t.Errorf("unexpected songs %+v", got)
			}
		})

		t.Run("Empty List Is Not Nil", func(t *testing.T) {
			server := jsonServer(t, http.StatusOK, []models.Song{}, nil)

			got, err := NewAPIService(server.URL, nil).ListSongs(context.Background())
			if err != nil || got == nil || len(got) != 0 {
				t.Errorf("expected empty non-nil list, got %v, %v", got, err)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			server := jsonServer(t, http.StatusInternalServerError, map[string]string{"error": "db locked"}, nil)

			_, err := NewAPIService(server.URL, nil).ListSongs(context.Background())
			if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "db locked") {
				t.Errorf("expected API error with server message, got %v", err)
			}
		})
	})

	t.Run("AddSong", func(t *testing.T) {
		t.Run("Posts Title And URL", func(t *testing.T) {
			server := jsonServer(t, http.StatusOK, map[string]any{
				"success": true,
				"song":    models.Song{ID: 7, Title: "Lofi", URL: "https://x/l.mp3", UploadedAt: now},
			}, func(r *http.Request) {
				var body map[string]string
				json.NewDecoder(r.Body).Decode(&body)
				if r.URL.Path != "/songs" || body["title"] != "Lofi" || body["url"] != "https://x/l.mp3" {
					t.Errorf("unexpected request %s %v", r.URL.Path, body)
				}
			})

			song, err := NewAPIService(server.URL, nil).AddSong(context.Background(), "Lofi", "https://x/l.mp3")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if song.ID != 7 {
				t.Errorf("unexpected song %+v", song)
			}
		})

		t.Run("Missing Data", func(t *testing.T) {
			server := jsonServer(t, http.StatusBadRequest, map[string]string{"error": "Missing data"}, nil)

			_, err := NewAPIService(server.URL, nil).AddSong(context.Background(), "", "")
			if err == nil || !strings.Contains(err.Error(), "Missing data") {
				t.Errorf("expected Missing data error, got %v", err)
			}
		})
	})

	t.Run("Upload", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "My Song.mp3")
		if err := os.WriteFile(path, []byte("ID3 audio"), 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		t.Run("Streams Multipart Form", func(t *testing.T) {
			server := jsonServer(t, http.StatusOK, UploadResult{Success: true, URL: "https://x/my-song-1.mp3", Title: "My Song", Indexed: true}, func(r *http.Request) {
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					t.Errorf("expected multipart body: %v", err)
					return
				}
				if r.FormValue("title") != "My Song" {
					t.Errorf("unexpected title %q", r.FormValue("title"))
				}
				f, header, err := r.FormFile("file")
				if err != nil {
					t.Errorf("expected file part: %v", err)
					return
				}
				defer f.Close()
				data, _ := io.ReadAll(f)
				if header.Filename != "My Song.mp3" || string(data) != "ID3 audio" {
					t.Errorf("unexpected file %s %q", header.Filename, data)
				}
			})

			result, err := NewAPIService(server.URL, nil).Upload(context.Background(), "My Song", path)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !result.Success || result.URL != "https://x/my-song-1.mp3" || !result.Indexed {
				t.Errorf("unexpected result %+v", result)
			}
		})

		t.Run("Server Rejects File", func(t *testing.T) {
			server := jsonServer(t, http.StatusBadRequest, map[string]string{"error": "Only MP3 files allowed"}, func(r *http.Request) {
				io.Copy(io.Discard, r.Body)
			})

			_, err := NewAPIService(server.URL, nil).Upload(context.Background(), "My Song", path)
			if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "Only MP3 files allowed") {
				t.Errorf("expected API error, got %v", err)
			}
		})

		t.Run("Missing File", func(t *testing.T) {
			_, err := NewAPIService("http://example.com", nil).Upload(context.Background(), "x", filepath.Join(dir, "nope.mp3"))
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	})

	t.Run("Health", func(t *testing.T) {
		t.Run("Up", func(t *testing.T) {
			server := jsonServer(t, http.StatusOK, HealthStatus{Status: "ok", Songs: 3}, nil)

			status, err := NewAPIService(server.URL, nil).Health(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if status.Status != "ok" || status.Songs != 3 {
				t.Errorf("unexpected status %+v", status)
			}
		})

		t.Run("Down", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}

			_, err := NewAPIService("http://example.com", client).Health(context.Background())
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})
	})
}

