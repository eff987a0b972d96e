// package formatter renders song lists and upload reports for the CLI (text, CSV, Markdown, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/songdrop/internal/models"
	"github.com/desertthunder/songdrop/internal/shared"
	"github.com/desertthunder/songdrop/internal/tasks"
)

// Format names an output format.
type Format string

const (
	Text     Format = "text"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	JSON     Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{Text, CSV, Markdown, JSON}

// ParseFormat resolves a format name, accepting "md" and "txt" as aliases. Empty input yields [Text].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, csv, markdown or json)", shared.ErrInvalidArgument, s)
	}
}

// Render writes songs to w in the given format.
func Render(w io.Writer, songs []models.Song, format Format) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case CSV:
		data, err = SongsToCSV(songs)
	case Markdown:
		data = SongsToMarkdown(songs)
	case JSON:
		data, err = shared.MarshalJSON(songs, true)
		data = append(data, '\n')
	default:
		data, err = SongsToText(songs)
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// SongsToCSV converts songs to CSV with columns: ID, Title, URL, Uploaded
func SongsToCSV(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Title", "URL", "Uploaded"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := []string{
			strconv.FormatInt(song.ID, 10),
			song.Title,
			song.URL,
			uploadedAt(song.UploadedAt, time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SongsToMarkdown renders songs as a numbered list of links with the in-game command under each.
func SongsToMarkdown(songs []models.Song) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Songs\n\n")
	fmt.Fprintf(&buf, "**Songs**: %d\n\n", len(songs))

	for i, song := range songs {
		fmt.Fprintf(&buf, "%d. [%s](%s)", i+1, escapeMarkdown(song.Title), song.URL)
		if ts := uploadedAt(song.UploadedAt, time.DateOnly); ts != "" {
			fmt.Fprintf(&buf, " (%s)", ts)
		}
		fmt.Fprintf(&buf, "\n   `/streammusic %s`\n", song.URL)
	}

	return buf.Bytes()
}

// SongsToText renders songs as an aligned table.
func SongsToText(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer

	if len(songs) == 0 {
		buf.WriteString("No songs.\n")
		return buf.Bytes(), nil
	}

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tURL\tUPLOADED")
	for _, song := range songs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", song.ID, song.Title, song.URL, uploadedAt(song.UploadedAt, time.DateTime))
	}
	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to render table: %w", err)
	}
	fmt.Fprintf(&buf, "\n%d songs\n", len(songs))

	return buf.Bytes(), nil
}

// UploadReportCSV converts bulk upload results to CSV with columns: Path, Title, Status, URL, Indexed, Error
func UploadReportCSV(result *tasks.BulkUploadResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Path", "Title", "Status", "URL", "Indexed", "Error"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, res := range result.Results {
		status, errMsg := "ok", ""
		if !res.Success {
			status = "failed"
			if res.Error != nil {
				errMsg = res.Error.Error()
			}
		}
		record := []string{res.Path, res.Title, status, res.URL, strconv.FormatBool(res.Indexed), errMsg}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteUploadReport writes the CSV report for a bulk upload to path.
func WriteUploadReport(result *tasks.BulkUploadResult, path string) error {
	data, err := UploadReportCSV(result)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func uploadedAt(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(layout)
}

var markdownEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`, `*`, `\*`, `_`, `\_`, "`", "\\`")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
