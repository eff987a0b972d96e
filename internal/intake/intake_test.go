package intake

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songdrop/internal/repositories"
	"github.com/desertthunder/songdrop/internal/shared"
	tu "github.com/desertthunder/songdrop/internal/testing"
)

func quietLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func newPipeline(catalog *tu.MockCatalog, store *tu.MemoryStore, policy IndexPolicy) *Pipeline {
	return New(Opts{
		Catalog: catalog,
		Store:   store,
		Stamper: shared.NewStamperWithClock(fixedClock(1700000000000)),
		Policy:  policy,
		Logger:  quietLogger(),
	})
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "lowercases and replaces spaces", title: "My Song", want: "my-song"},
		{name: "keeps punctuation as separators", title: "My Song!", want: "my-song-"},
		{name: "does not collapse runs", title: "a  &  b", want: "a-----b"},
		{name: "keeps digits", title: "Track 01", want: "track-01"},
		{name: "replaces each non-ascii rune once", title: "Café", want: "caf-"},
		{name: "already a slug", title: "lofi-beats", want: "lofi-beats"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}

	t.Run("output only contains a-z, 0-9 and hyphens", func(t *testing.T) {
		pattern := regexp.MustCompile(`^[a-z0-9-]*$`)
		for _, title := range []string{"Hello, World", "ÜBER 2000!!", "tab\tnew\nline", "日本語"} {
			if got := Slugify(title); !pattern.MatchString(got) {
				t.Errorf("Slugify(%q) = %q contains invalid characters", title, got)
			}
		}
	})
}

func TestStorageName(t *testing.T) {
	if got := StorageName("My Song!", 1700000000000); got != "my-song--1700000000000.mp3" {
		t.Errorf("unexpected storage name %s", got)
	}
}

func TestPipelineProcess(t *testing.T) {
	t.Run("stores and indexes a valid upload", func(t *testing.T) {
		catalog := &tu.MockCatalog{}
		store := tu.NewMemoryStore("https://cdn.example.com/music/")
		p := newPipeline(catalog, store, BestEffort)

		req := tu.NewUploadRequest(t, "/upload", "My Song!", "track.mp3", "ID3 bytes")
		result, err := p.Process(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.FileName != "my-song--1700000000000.mp3" {
			t.Errorf("unexpected file name %s", result.FileName)
		}
		if result.URL != "https://cdn.example.com/music/my-song--1700000000000.mp3" {
			t.Errorf("unexpected URL %s", result.URL)
		}
		if !result.Indexed || result.Song == nil {
			t.Fatal("expected upload to be indexed")
		}
		if result.Song.Title != "My Song!" || result.Song.URL != result.URL {
			t.Errorf("catalog entry does not match upload: %+v", result.Song)
		}
		if string(store.Files[result.FileName]) != "ID3 bytes" {
			t.Errorf("stored bytes differ: %q", store.Files[result.FileName])
		}
	})

	t.Run("trims the title", func(t *testing.T) {
		catalog := &tu.MockCatalog{}
		p := newPipeline(catalog, tu.NewMemoryStore("http://x/"), BestEffort)

		result, err := p.Process(context.Background(), tu.NewUploadRequest(t, "/upload", "  Chill  ", "c.mp3", "x"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Title != "Chill" || catalog.Songs[0].Title != "Chill" {
			t.Errorf("expected trimmed title, got %q", result.Title)
		}
	})

	validationCases := []struct {
		name     string
		title    string
		filename string
		message  string
	}{
		{name: "missing title", filename: "a.mp3", message: MsgMissingFields},
		{name: "blank title", title: "   ", filename: "a.mp3", message: MsgMissingFields},
		{name: "missing file", title: "Song", message: MsgMissingFields},
		{name: "wrong extension", title: "Song", filename: "a.wav", message: MsgOnlyMP3},
		{name: "uppercase extension", title: "Song", filename: "a.MP3", message: MsgOnlyMP3},
		{name: "mp3 not at the end", title: "Song", filename: "a.mp3.exe", message: MsgOnlyMP3},
	}

	for _, tc := range validationCases {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			catalog := &tu.MockCatalog{}
			store := tu.NewMemoryStore("http://x/")
			p := newPipeline(catalog, store, BestEffort)

			_, err := p.Process(context.Background(), tu.NewUploadRequest(t, "/upload", tc.title, tc.filename, "x"))

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Message != tc.message {
				t.Errorf("expected message %q, got %q", tc.message, verr.Message)
			}
			if !errors.Is(err, shared.ErrValidation) {
				t.Error("expected error to wrap ErrValidation")
			}
			if store.Len() != 0 || catalog.Appends != 0 {
				t.Error("rejected upload must not store or index anything")
			}
		})
	}

	t.Run("rejects a body that is not multipart", func(t *testing.T) {
		p := newPipeline(&tu.MockCatalog{}, tu.NewMemoryStore("http://x/"), BestEffort)

		req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"title":"x"}`))
		req.Header.Set("Content-Type", "application/json")

		_, err := p.Process(context.Background(), req)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Message != MsgMissingFields {
			t.Errorf("expected missing fields error, got %v", err)
		}
	})

	t.Run("rejects empty and truncated multipart bodies", func(t *testing.T) {
		full, contentType := tu.MultipartBody(t, map[string]string{"title": "Song"},
			tu.MultipartFile{Field: "file", Name: "song.mp3", Contents: strings.Repeat("a", 256)})
		truncated := full.String()[:full.Len()-120]

		for name, body := range map[string]string{"empty": "", "truncated": truncated} {
			store := tu.NewMemoryStore("http://x/")
			catalog := &tu.MockCatalog{}
			p := newPipeline(catalog, store, BestEffort)

			req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(body))
			req.Header.Set("Content-Type", contentType)

			_, err := p.Process(context.Background(), req)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Message != MsgMissingFields {
				t.Errorf("%s: expected missing fields error, got %v", name, err)
			}
			if store.Len() != 0 || catalog.Appends != 0 {
				t.Errorf("%s: nothing should be stored or indexed", name)
			}
		}
	})

	t.Run("uses the first file part regardless of field name", func(t *testing.T) {
		store := tu.NewMemoryStore("http://x/")
		p := newPipeline(&tu.MockCatalog{}, store, BestEffort)

		body, contentType := tu.MultipartBody(t, map[string]string{"title": "Song"},
			tu.MultipartFile{Field: "audio", Name: "song.mp3", Contents: "abc"})
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)

		if _, err := p.Process(context.Background(), req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.Len() != 1 {
			t.Error("expected file to be stored")
		}
	})

	t.Run("reports oversized bodies", func(t *testing.T) {
		p := newPipeline(&tu.MockCatalog{}, tu.NewMemoryStore("http://x/"), BestEffort)

		req := tu.NewUploadRequest(t, "/upload", "Song", "big.mp3", strings.Repeat("x", 4096))
		req.Body = http.MaxBytesReader(httptest.NewRecorder(), req.Body, 512)

		_, err := p.Process(context.Background(), req)
		if !errors.Is(err, shared.ErrPayloadTooLarge) {
			t.Errorf("expected ErrPayloadTooLarge, got %v", err)
		}
	})

	t.Run("storage failure leaves the catalog untouched", func(t *testing.T) {
		catalog := &tu.MockCatalog{}
		store := tu.NewMemoryStore("http://x/")
		store.Err = shared.ErrStorage
		p := newPipeline(catalog, store, BestEffort)

		_, err := p.Process(context.Background(), tu.NewUploadRequest(t, "/upload", "Song", "a.mp3", "x"))
		if !errors.Is(err, shared.ErrStorage) {
			t.Errorf("expected ErrStorage, got %v", err)
		}
		if catalog.Appends != 0 {
			t.Error("catalog should not be appended to after a storage failure")
		}
	})
}

func TestIndexPolicy(t *testing.T) {
	t.Run("best effort reports success without indexing", func(t *testing.T) {
		catalog := &tu.MockCatalog{AppendErr: errors.New("disk full")}
		store := tu.NewMemoryStore("http://x/")
		p := newPipeline(catalog, store, BestEffort)

		result, err := p.Process(context.Background(), tu.NewUploadRequest(t, "/upload", "Song", "a.mp3", "x"))
		if err != nil {
			t.Fatalf("best effort should not fail: %v", err)
		}
		if result.Indexed || result.Song != nil {
			t.Error("result should report the song as not indexed")
		}
		if result.URL == "" || store.Len() != 1 {
			t.Error("file should still be stored")
		}
	})

	t.Run("strict fails the upload and removes the stored file", func(t *testing.T) {
		catalog := &tu.MockCatalog{AppendErr: errors.New("disk full")}
		store := tu.NewMemoryStore("http://x/")
		p := newPipeline(catalog, store, Strict)

		_, err := p.Process(context.Background(), tu.NewUploadRequest(t, "/upload", "Song", "a.mp3", "x"))
		if !errors.Is(err, shared.ErrIndexing) {
			t.Errorf("expected ErrIndexing, got %v", err)
		}
		if store.Len() != 0 {
			t.Errorf("expected stored file to be removed, %d left", store.Len())
		}
	})

	t.Run("strict still reports the indexing error when cleanup fails", func(t *testing.T) {
		catalog := &tu.MockCatalog{AppendErr: errors.New("disk full")}
		store := tu.NewMemoryStore("http://x/")
		store.DeleteErr = shared.ErrStorage
		p := newPipeline(catalog, store, Strict)

		_, err := p.Process(context.Background(), tu.NewUploadRequest(t, "/upload", "Song", "a.mp3", "x"))
		if !errors.Is(err, shared.ErrIndexing) {
			t.Errorf("expected ErrIndexing, got %v", err)
		}
	})
}

func TestPipelineWithMemoryCatalog(t *testing.T) {
	t.Run("upload appears at the head of the list", func(t *testing.T) {
		stamper := shared.NewStamper()
		catalog := repositories.NewMemoryCatalog(stamper)
		store := tu.NewMemoryStore("http://localhost:3000/media/")
		p := New(Opts{Catalog: catalog, Store: store, Stamper: stamper, Logger: quietLogger()})

		ctx := context.Background()
		if _, err := catalog.Append(ctx, "Older", "http://x/older.mp3"); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}

		result, err := p.Process(ctx, tu.NewUploadRequest(t, "/upload", "My Song!", "song.mp3", "data"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		songs, _ := catalog.List(ctx)
		if len(songs) != 2 {
			t.Fatalf("expected 2 songs, got %d", len(songs))
		}
		if songs[0].Title != "My Song!" || songs[0].URL != result.URL {
			t.Errorf("newest upload should be first, got %+v", songs[0])
		}
		if !regexp.MustCompile(`my-song--\d+\.mp3$`).MatchString(songs[0].URL) {
			t.Errorf("unexpected URL shape %s", songs[0].URL)
		}
	})

	t.Run("concurrent uploads get unique names and are all indexed", func(t *testing.T) {
		stamper := shared.NewStamperWithClock(fixedClock(1700000000000))
		catalog := repositories.NewMemoryCatalog(stamper)
		store := tu.NewMemoryStore("http://x/")
		p := New(Opts{Catalog: catalog, Store: store, Stamper: stamper, Logger: quietLogger()})

		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				sub := &Submission{Title: "Same Title", FileName: "s.mp3", File: bytes.NewReader([]byte("x"))}
				if _, err := p.Ingest(context.Background(), sub); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			t.Errorf("unexpected error: %v", err)
		}

		if store.Len() != n {
			t.Errorf("expected %d distinct files, got %d", n, store.Len())
		}
		songs, _ := catalog.List(context.Background())
		if len(songs) != n {
			t.Errorf("expected %d songs, got %d", n, len(songs))
		}
	})
}
