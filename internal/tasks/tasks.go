// package tasks implements long-running client-side operations against a songdrop server.
//
// The core abstraction is Uploader, which pushes many local files through POST /upload.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/desertthunder/songdrop/internal/services"
	"github.com/desertthunder/songdrop/internal/shared"
	"golang.org/x/time/rate"
)

const (
	DefaultWorkers   = 3
	MaxWorkers       = 10
	DefaultRateLimit = 2.0
)

// BulkUploadOpts contains configuration for bulk uploads.
type BulkUploadOpts struct {
	NumWorkers int     // Concurrent uploads (default: 3, max: 10)
	RateLimit  float64 // Uploads started per second (default: 2)
}

// FileResult is the outcome of uploading a single file.
type FileResult struct {
	Path    string
	Title   string
	URL     string
	Indexed bool
	Success bool
	Error   error
}

// BulkUploadResult summarizes a bulk upload.
type BulkUploadResult struct {
	Total     int
	Succeeded int
	Failed    int
	Results   []FileResult // In input order
}

type indexedResult struct {
	index int
	res   FileResult
}

type uploadJob struct {
	index int
	path  string
	title string
}

// Uploader uploads local files through a [services.Client].
type Uploader struct {
	client services.Client
}

// NewUploader creates an [Uploader] backed by client.
func NewUploader(client services.Client) *Uploader {
	return &Uploader{client: client}
}

// sendProgress sends a progress update through the channel without blocking.
func (u *Uploader) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// TitleFromPath derives a song title from a filename: "music/My Song.mp3" → "My Song".
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
}

// CollectFiles expands args into upload candidates.
//
// Directories contribute their top-level .mp3 files (any case, sorted); files are kept as given so that
// non-MP3 arguments are reported as failures rather than silently dropped.
func CollectFiles(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: at least one file or directory", shared.ErrMissingArgument)
	}

	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
		var found []string
		for _, e := range entries {
			name := e.Name()
			if e.Type().IsRegular() && !strings.HasPrefix(name, ".") && strings.EqualFold(filepath.Ext(name), ".mp3") {
				found = append(found, filepath.Join(arg, name))
			}
		}
		slices.Sort(found)
		files = append(files, found...)
	}
	return files, nil
}

// BulkUpload uploads paths concurrently with rate limiting and progress tracking.
//
// Files without the ".mp3" suffix fail without a request. A cancelled context stops new uploads; files that
// never started are reported as failed with the context error.
func (u *Uploader) BulkUpload(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	paths []string,
	opts BulkUploadOpts,
) (*BulkUploadResult, error) {
	if u.client == nil {
		return nil, fmt.Errorf("%w: client not initialized", shared.ErrServiceUnavailable)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files to upload", shared.ErrMissingArgument)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = DefaultWorkers
	}
	if opts.NumWorkers > MaxWorkers {
		opts.NumWorkers = MaxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}

	total := len(paths)
	result := &BulkUploadResult{Total: total, Results: make([]FileResult, total)}
	done := make([]bool, total)

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan uploadJob, total)
	results := make(chan indexedResult, total)

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res := u.uploadOne(ctx, job)
				results <- indexedResult{index: job.index, res: res}
			}
		}()
	}

	go func() {
		defer close(jobs)
		u.sendProgress(prog, scanUpdate(total))
		for i, path := range paths {
			job := uploadJob{index: i, path: path, title: TitleFromPath(path)}

			if !strings.HasSuffix(path, ".mp3") {
				results <- indexedResult{index: i, res: FileResult{
					Path:  path,
					Title: job.title,
					Error: fmt.Errorf("%w: only MP3 files allowed", shared.ErrValidation),
				}}
				continue
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}
			u.sendProgress(prog, uploadingUpdate(i+1, total, job.title))
			jobs <- job
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for r := range results {
		completed++
		result.Results[r.index] = r.res
		done[r.index] = true

		if r.res.Success {
			result.Succeeded++
			u.sendProgress(prog, uploadedUpdate(completed, total, r.res))
		} else {
			result.Failed++
			u.sendProgress(prog, uploadFailedUpdate(completed, total, r.res))
		}
	}

	if err := ctx.Err(); err != nil {
		for i, ok := range done {
			if !ok {
				result.Results[i] = FileResult{Path: paths[i], Title: TitleFromPath(paths[i]), Error: err}
				result.Failed++
			}
		}
		return result, fmt.Errorf("bulk upload interrupted: %w", err)
	}

	u.sendProgress(prog, completeUpdate(result))
	return result, nil
}

func (u *Uploader) uploadOne(ctx context.Context, job uploadJob) FileResult {
	res := FileResult{Path: job.path, Title: job.title}

	if err := ctx.Err(); err != nil {
		res.Error = err
		return res
	}

	uploaded, err := u.client.Upload(ctx, job.title, job.path)
	if err != nil {
		res.Error = err
		return res
	}

	res.URL = uploaded.URL
	res.Indexed = uploaded.Indexed
	res.Success = true
	return res
}
