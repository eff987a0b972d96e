package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songdrop/internal/models"
	"github.com/desertthunder/songdrop/internal/shared"
	"github.com/desertthunder/songdrop/internal/storage"
)

const (
	mp3Ext = ".mp3"

	// maxMemory is how much of a multipart body is held in memory before parts spill to temp files.
	maxMemory = 8 << 20

	MsgMissingFields = "Missing title or file"
	MsgOnlyMP3       = "Only MP3 files allowed"
)

// IndexPolicy decides what a catalog failure does to an otherwise successful upload.
type IndexPolicy string

const (
	BestEffort IndexPolicy = shared.IndexBestEffort
	Strict     IndexPolicy = shared.IndexStrict
)

// ValidationError reports bad upload input with a user-facing message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return shared.ErrValidation
}

// Submission is the parsed upload: the title, the declared filename, and the file contents.
type Submission struct {
	Title    string
	FileName string
	File     io.Reader
}

// Result describes a completed upload.
type Result struct {
	Title    string       // Title as submitted (trimmed)
	FileName string       // Generated storage name
	URL      string       // Public URL of the stored file
	Indexed  bool         // Whether the catalog accepted the song
	Song     *models.Song // Catalog entry, nil when not indexed
}

// Pipeline validates uploads, stores them, and records them in the catalog.
type Pipeline struct {
	catalog models.Catalog
	store   storage.Store
	stamper *shared.Stamper
	policy  IndexPolicy
	logger  *log.Logger
}

// Opts contains the dependencies of a [Pipeline].
type Opts struct {
	Catalog models.Catalog
	Store   storage.Store
	Stamper *shared.Stamper // defaults to the wall clock
	Policy  IndexPolicy     // defaults to [BestEffort]
	Logger  *log.Logger     // defaults to a stderr logger
}

// New creates a [Pipeline].
func New(opts Opts) *Pipeline {
	if opts.Stamper == nil {
		opts.Stamper = shared.NewStamper()
	}
	if opts.Policy == "" {
		opts.Policy = BestEffort
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Pipeline{
		catalog: opts.Catalog,
		store:   opts.Store,
		stamper: opts.Stamper,
		policy:  opts.Policy,
		logger:  shared.WithLogger(opts.Logger, "component", "intake"),
	}
}

// Describe returns the storage backend's note for upload responses.
func (p *Pipeline) Describe() string {
	return p.store.Describe()
}

// Process parses r as a multipart upload and runs the full pipeline.
//
// The caller is responsible for bounding the body size (see [http.MaxBytesReader]).
func (p *Pipeline) Process(ctx context.Context, r *http.Request) (*Result, error) {
	sub, cleanup, err := Parse(r)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return p.Ingest(ctx, sub)
}

// Parse extracts the title and first file part from a multipart request.
//
// The returned cleanup removes any temp files the parser created and must be called once the submission is consumed.
func Parse(r *http.Request) (*Submission, func(), error) {
	noop := func() {}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, noop, fmt.Errorf("%w: body exceeds %d bytes", shared.ErrPayloadTooLarge, tooLarge.Limit)
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			return nil, noop, &ValidationError{Message: MsgMissingFields}
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			// Empty or truncated bodies never carry a complete title and file.
			return nil, noop, &ValidationError{Message: MsgMissingFields}
		default:
			return nil, noop, fmt.Errorf("failed to parse upload: %w", err)
		}
	}

	form := r.MultipartForm
	cleanup := func() { form.RemoveAll() }

	var title string
	if values := form.Value["title"]; len(values) > 0 {
		title = strings.TrimSpace(values[0])
	}

	header := firstFile(form)
	if title == "" || header == nil || header.Filename == "" {
		cleanup()
		return nil, noop, &ValidationError{Message: MsgMissingFields}
	}

	file, err := header.Open()
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("failed to open uploaded file: %w", err)
	}

	return &Submission{Title: title, FileName: header.Filename, File: file}, func() {
		file.Close()
		cleanup()
	}, nil
}

// Ingest validates a parsed submission, stores the file, and appends it to the catalog.
func (p *Pipeline) Ingest(ctx context.Context, sub *Submission) (*Result, error) {
	title := strings.TrimSpace(sub.Title)
	if title == "" || sub.FileName == "" {
		return nil, &ValidationError{Message: MsgMissingFields}
	}
	if !strings.HasSuffix(sub.FileName, mp3Ext) {
		return nil, &ValidationError{Message: MsgOnlyMP3}
	}

	name := StorageName(title, p.stamper.Next())

	url, err := p.store.Put(ctx, name, sub.File)
	if err != nil {
		p.logger.Error("failed to store upload", "file", name, "error", err)
		if !errors.Is(err, shared.ErrStorage) {
			err = fmt.Errorf("%w: %w", shared.ErrStorage, err)
		}
		return nil, fmt.Errorf("failed to store %s: %w", name, err)
	}

	result := &Result{Title: title, FileName: name, URL: url}

	song, err := p.catalog.Append(ctx, title, url)
	if err != nil {
		indexErr := fmt.Errorf("%w: %v", shared.ErrIndexing, err)
		if p.policy == Strict {
			p.logger.Error("failed to index upload", "file", name, "error", err)
			if delErr := p.store.Delete(ctx, name); delErr != nil {
				p.logger.Error("failed to remove unindexed upload", "file", name, "error", delErr)
			}
			return nil, indexErr
		}
		p.logger.Warn("upload stored but not indexed", "file", name, "url", url, "error", indexErr)
		return result, nil
	}

	result.Indexed = true
	result.Song = &song
	p.logger.Info("upload complete", "title", title, "file", name, "id", song.ID)
	return result, nil
}

// firstFile picks the "file" field when present, otherwise the first file part by field name.
func firstFile(form *multipart.Form) *multipart.FileHeader {
	if files := form.File["file"]; len(files) > 0 {
		return files[0]
	}

	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if files := form.File[field]; len(files) > 0 {
			return files[0]
		}
	}
	return nil
}
