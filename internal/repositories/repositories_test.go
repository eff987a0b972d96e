package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/songdrop/internal/models"
	"github.com/desertthunder/songdrop/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// catalogs returns a constructor per backend so every contract test runs against both.
func catalogs(t *testing.T) map[string]func() models.Catalog {
	return map[string]func() models.Catalog{
		"memory": func() models.Catalog { return NewMemoryCatalog(nil) },
		"sqlite": func() models.Catalog { return NewSongRepository(setupTestDB(t), nil) },
	}
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()

	for name, newCatalog := range catalogs(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("List on empty catalog", func(t *testing.T) {
				catalog := newCatalog()

				songs, err := catalog.List(ctx)
				if err != nil {
					t.Fatalf("failed to list songs: %v", err)
				}
				if songs == nil || len(songs) != 0 {
					t.Errorf("expected empty non-nil list, got %#v", songs)
				}
			})

			t.Run("Append puts the newest song first", func(t *testing.T) {
				catalog := newCatalog()

				first, err := catalog.Append(ctx, "First", "https://example.com/first.mp3")
				if err != nil {
					t.Fatalf("failed to append song: %v", err)
				}
				second, err := catalog.Append(ctx, "Second", "https://example.com/second.mp3")
				if err != nil {
					t.Fatalf("failed to append song: %v", err)
				}

				songs, err := catalog.List(ctx)
				if err != nil {
					t.Fatalf("failed to list songs: %v", err)
				}
				if len(songs) != 2 {
					t.Fatalf("expected 2 songs, got %d", len(songs))
				}
				if songs[0].Title != "Second" || songs[0].URL != "https://example.com/second.mp3" {
					t.Errorf("expected Second first, got %+v", songs[0])
				}
				if songs[0].ID != second.ID || songs[1].ID != first.ID {
					t.Errorf("ids don't match appended songs: %+v", songs)
				}
				if first.ID == second.ID {
					t.Error("expected distinct ids")
				}
				if second.UploadedAt.IsZero() {
					t.Error("expected uploaded_at to be set")
				}
			})

			t.Run("Append rejects empty fields without mutating", func(t *testing.T) {
				catalog := newCatalog()
				if _, err := catalog.Append(ctx, "Keep", "https://example.com/keep.mp3"); err != nil {
					t.Fatalf("failed to append song: %v", err)
				}

				for _, in := range [][2]string{{"", "https://example.com/a.mp3"}, {"Title", ""}, {" ", " "}} {
					_, err := catalog.Append(ctx, in[0], in[1])
					if !errors.Is(err, shared.ErrValidation) {
						t.Errorf("Append(%q, %q): expected ErrValidation, got %v", in[0], in[1], err)
					}
				}

				songs, err := catalog.List(ctx)
				if err != nil {
					t.Fatalf("failed to list songs: %v", err)
				}
				if len(songs) != 1 {
					t.Errorf("expected catalog to be unchanged, got %d songs", len(songs))
				}
			})

			t.Run("List is idempotent", func(t *testing.T) {
				catalog := newCatalog()
				for i := 0; i < 3; i++ {
					if _, err := catalog.Append(ctx, fmt.Sprintf("Song %d", i), fmt.Sprintf("https://example.com/%d.mp3", i)); err != nil {
						t.Fatalf("failed to append song: %v", err)
					}
				}

				a, err := catalog.List(ctx)
				if err != nil {
					t.Fatalf("failed to list songs: %v", err)
				}
				b, err := catalog.List(ctx)
				if err != nil {
					t.Fatalf("failed to list songs: %v", err)
				}

				if len(a) != len(b) {
					t.Fatalf("list lengths differ: %d vs %d", len(a), len(b))
				}
				for i := range a {
					if a[i].ID != b[i].ID || a[i].Title != b[i].Title || a[i].URL != b[i].URL || !a[i].UploadedAt.Equal(b[i].UploadedAt) {
						t.Errorf("entry %d differs: %+v vs %+v", i, a[i], b[i])
					}
				}
			})

			t.Run("Concurrent appends are not lost", func(t *testing.T) {
				catalog := newCatalog()
				const n = 50

				var wg sync.WaitGroup
				errs := make(chan error, n)
				for i := 0; i < n; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						_, err := catalog.Append(ctx, fmt.Sprintf("Song %d", i), fmt.Sprintf("https://example.com/%d.mp3", i))
						errs <- err
					}(i)
				}
				wg.Wait()
				close(errs)

				for err := range errs {
					if err != nil {
						t.Fatalf("append failed: %v", err)
					}
				}

				songs, err := catalog.List(ctx)
				if err != nil {
					t.Fatalf("failed to list songs: %v", err)
				}
				if len(songs) != n {
					t.Fatalf("expected %d songs, got %d", n, len(songs))
				}

				ids := make(map[int64]bool, n)
				for _, s := range songs {
					ids[s.ID] = true
				}
				if len(ids) != n {
					t.Errorf("expected %d distinct ids, got %d", n, len(ids))
				}
			})
		})
	}
}

func TestMemoryCatalog(t *testing.T) {
	t.Run("List returns a copy", func(t *testing.T) {
		catalog := NewMemoryCatalog(nil)
		if _, err := catalog.Append(context.Background(), "Original", "https://example.com/o.mp3"); err != nil {
			t.Fatalf("failed to append song: %v", err)
		}

		songs, _ := catalog.List(context.Background())
		songs[0].Title = "Changed"

		again, _ := catalog.List(context.Background())
		if again[0].Title != "Original" {
			t.Errorf("catalog was mutated through List result: %q", again[0].Title)
		}
	})

	t.Run("Append honours cancelled context", func(t *testing.T) {
		catalog := NewMemoryCatalog(nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := catalog.Append(ctx, "Late", "https://example.com/late.mp3"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("ids come from the stamper", func(t *testing.T) {
		frozen := time.UnixMilli(1700000000000)
		catalog := NewMemoryCatalog(shared.NewStamperWithClock(func() time.Time { return frozen }))

		a, _ := catalog.Append(context.Background(), "A", "https://example.com/a.mp3")
		b, _ := catalog.Append(context.Background(), "B", "https://example.com/b.mp3")

		if a.ID != 1700000000000 || b.ID != 1700000000001 {
			t.Errorf("unexpected ids %d, %d", a.ID, b.ID)
		}
	})
}

func TestSongRepository(t *testing.T) {
	t.Run("survives reopening the repository", func(t *testing.T) {
		db := setupTestDB(t)

		if _, err := NewSongRepository(db, nil).Append(context.Background(), "Stored", "https://example.com/s.mp3"); err != nil {
			t.Fatalf("failed to append song: %v", err)
		}

		songs, err := NewSongRepository(db, nil).List(context.Background())
		if err != nil {
			t.Fatalf("failed to list songs: %v", err)
		}
		if len(songs) != 1 || songs[0].Title != "Stored" {
			t.Errorf("expected stored song, got %+v", songs)
		}
	})

	t.Run("fails without migrations", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		repo := NewSongRepository(db, nil)
		if _, err := repo.Append(context.Background(), "Song", "https://example.com/s.mp3"); err == nil {
			t.Error("expected error without songs table")
		}
		if _, err := repo.List(context.Background()); err == nil {
			t.Error("expected error without songs table")
		}
	})
}

func TestNew(t *testing.T) {
	config := shared.DefaultConfig()

	t.Run("memory", func(t *testing.T) {
		catalog, err := New(config, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := catalog.(*MemoryCatalog); !ok {
			t.Errorf("expected *MemoryCatalog, got %T", catalog)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Catalog.Backend = shared.CatalogSQLite

		if _, err := New(config, nil, nil); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig without db, got %v", err)
		}

		catalog, err := New(config, setupTestDB(t), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := catalog.(*SongRepository); !ok {
			t.Errorf("expected *SongRepository, got %T", catalog)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Catalog.Backend = "redis"

		if _, err := New(config, nil, nil); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	seeds := []shared.SeedConfig{
		{Title: "Example Song 1", URL: "https://example.com/1.mp3"},
		{Title: "Example Song 2", URL: "https://example.com/2.mp3"},
	}

	t.Run("appends in order", func(t *testing.T) {
		catalog := NewMemoryCatalog(nil)

		n, err := Seed(ctx, catalog, seeds)
		if err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 seeded, got %d", n)
		}

		songs, _ := catalog.List(ctx)
		if songs[0].Title != "Example Song 2" || songs[1].Title != "Example Song 1" {
			t.Errorf("unexpected seeded order: %+v", songs)
		}
	})

	t.Run("skips non-empty catalogs", func(t *testing.T) {
		catalog := NewMemoryCatalog(nil)
		catalog.Append(ctx, "Existing", "https://example.com/e.mp3")

		n, err := Seed(ctx, catalog, seeds)
		if err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected nothing seeded, got %d", n)
		}
	})

	t.Run("reports invalid seeds", func(t *testing.T) {
		catalog := NewMemoryCatalog(nil)

		n, err := Seed(ctx, catalog, []shared.SeedConfig{seeds[0], {Title: "No URL"}})
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 seeded before failure, got %d", n)
		}
	})
}
