// package formatter exports a watch list to JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/shared"
)

// Supported export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Formats lists every supported format name.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// WatchList is the exported form of one user's list.
type WatchList struct {
	Owner      string            `json:"owner"`
	ExportedAt time.Time         `json:"exportedAt"`
	Items      []models.ListItem `json:"items"`
}

// ExportToJSON converts a WatchList to indented JSON.
func ExportToJSON(list *WatchList) ([]byte, error) {
	return shared.MarshalJSON(list, true)
}

// ExportToCSV converts a WatchList to CSV format with columns: imdbID, Title, Year, Type, Poster, AddedAt
func ExportToCSV(list *WatchList) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"imdbID", "Title", "Year", "Type", "Poster", "AddedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range list.Items {
		record := []string{
			item.ImdbID,
			item.Title,
			item.Year,
			item.Type,
			item.Poster,
			item.AddedAt.UTC().Format(time.RFC3339),
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

// ExportToMarkdown converts a WatchList to Markdown. posters maps imdbID to a local image
// path; items without one link the remote poster when it exists.
func ExportToMarkdown(list *WatchList, posters map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	title := "My List"
	if list.Owner != "" {
		title = fmt.Sprintf("%s's List", list.Owner)
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Titles**: %d\n", len(list.Items))
	if !list.ExportedAt.IsZero() {
		fmt.Fprintf(&buf, "**Exported**: %s\n", list.ExportedAt.UTC().Format("2006-01-02"))
	}
	buf.WriteString("\n")

	for i, item := range list.Items {
		fmt.Fprintf(&buf, "## %d. %s (%s)\n\n", i+1, item.Title, item.Year)

		poster := posters[item.ImdbID]
		if poster == "" && HasPoster(item.Poster) {
			poster = item.Poster
		}
		if poster != "" {
			fmt.Fprintf(&buf, "![%s](%s)\n\n", item.Title, poster)
		}

		fmt.Fprintf(&buf, "- Type: %s\n", item.Type)
		fmt.Fprintf(&buf, "- IMDb: https://www.imdb.com/title/%s/\n", item.ImdbID)
		if !item.AddedAt.IsZero() {
			fmt.Fprintf(&buf, "- Added: %s\n", item.AddedAt.UTC().Format("2006-01-02"))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a WatchList to plain text format
func ExportToText(list *WatchList) ([]byte, error) {
	var buf bytes.Buffer

	if list.Owner != "" {
		fmt.Fprintf(&buf, "List: %s\n", list.Owner)
	}
	fmt.Fprintf(&buf, "Titles: %d\n\n", len(list.Items))

	for i, item := range list.Items {
		fmt.Fprintf(&buf, "%d. %s (%s) [%s]\n", i+1, item.Title, item.Year, item.ImdbID)
	}

	return buf.Bytes(), nil
}

// Export renders list in format. Markdown output links remote posters.
func Export(list *WatchList, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return ExportToJSON(list)
	case FormatCSV:
		return ExportToCSV(list)
	case FormatMarkdown, "md":
		return ExportToMarkdown(list, nil)
	case FormatText, "text":
		return ExportToText(list)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q (want one of %s)",
			shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// HasPoster reports whether OMDb returned a usable poster URL.
func HasPoster(url string) bool {
	return url != "" && url != "N/A"
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Posters   int
}

// WriteMarkdownExport writes {dir}/README.md and, when withPosters is set, downloads each
// poster into {dir}/posters/{imdbID}{ext}. A failed poster download falls back to the remote link.
func WriteMarkdownExport(ctx context.Context, list *WatchList, outputDir string, withPosters bool, client *http.Client) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "mylist"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}
	posters := map[string]string{}

	if withPosters {
		posterDir := filepath.Join(outputDir, "posters")
		if err := os.MkdirAll(posterDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create poster directory: %w", err)
		}

		for _, item := range list.Items {
			if !HasPoster(item.Poster) {
				continue
			}

			data, err := DownloadImage(ctx, client, item.Poster)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to download poster for %s: %v\n", item.ImdbID, err)
				continue
			}

			ext := path.Ext(item.Poster)
			if ext == "" || len(ext) > 5 {
				ext = ".jpg"
			}
			name := item.ImdbID + ext
			if err := os.WriteFile(filepath.Join(posterDir, name), data, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save poster for %s: %v\n", item.ImdbID, err)
				continue
			}

			posters[item.ImdbID] = "posters/" + name
			result.Files = append(result.Files, filepath.Join(posterDir, name))
			result.Posters++
		}
	}

	mdData, err := ExportToMarkdown(list, posters)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteExport renders list in format and writes it to path.
//
// Defaults to mylist.{ext} when path is empty.
func WriteExport(list *WatchList, format, path string) (string, error) {
	data, err := Export(list, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = "mylist." + Extension(format)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// Extension returns the file extension used for format.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case FormatCSV:
		return "csv"
	case FormatMarkdown, "md":
		return "md"
	case FormatText, "text":
		return "txt"
	default:
		return "json"
	}
}
