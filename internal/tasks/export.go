package tasks

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/freemovies/internal/formatter"
	"github.com/desertthunder/freemovies/internal/shared"
)

// ExportOpts contains configuration for multi-format list exports.
type ExportOpts struct {
	Formats    []string     // Formats to write (default: all)
	OutputDir  string       // Output directory (default: mylist_export_{epoch})
	NumWorkers int          // Concurrent workers (default: 2, max 4)
	Posters    bool         // Download posters for the Markdown export
	Client     *http.Client // Poster download client
}

// FormatResult is the outcome of one format of an export.
type FormatResult struct {
	Format  string   `json:"format"`
	Files   []string `json:"files"`
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
}

// ExportResult summarizes [Engine.Export].
type ExportResult struct {
	OutputDirectory string         `json:"outputDirectory"`
	Items           int            `json:"items"`
	Successful      int            `json:"successful"`
	Failed          int            `json:"failed"`
	Results         []FormatResult `json:"results"`
	ManifestPath    string         `json:"-"`
}

// Export writes list in every requested format using a small worker pool and a manifest file.
func (e *Engine) Export(ctx context.Context, prog chan<- ProgressUpdate, list *formatter.WatchList, opts ExportOpts) (*ExportResult, error) {
	if list == nil {
		return nil, fmt.Errorf("%w: nothing to export", shared.ErrMissingArgument)
	}

	formats, err := normalizeFormats(opts.Formats)
	if err != nil {
		return nil, err
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("mylist_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 2
	}
	if opts.NumWorkers > 4 {
		opts.NumWorkers = 4
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		OutputDirectory: opts.OutputDir,
		Items:           len(list.Items),
		Results:         make([]FormatResult, 0, len(formats)),
	}

	jobs := make(chan string, len(formats))
	results := make(chan FormatResult, len(formats))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, list, jobs, results, opts)
	}

	e.sendProgress(prog, exportingUpdate(formats))
	for _, f := range formats {
		jobs <- f
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Successful++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(formats), res.Format, len(res.Files)))
		} else {
			result.Failed++
			e.sendProgress(prog, exportFailedUpdate(completed, len(formats), res.Format, fmt.Errorf("%s", res.Error)))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	slices.SortFunc(result.Results, func(a, b FormatResult) int { return strings.Compare(a.Format, b.Format) })

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))
	return result, nil
}

// exportWorker writes one format per job until jobs is drained or ctx ends.
func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	list *formatter.WatchList,
	jobs <-chan string,
	results chan<- FormatResult,
	opts ExportOpts,
) {
	defer wg.Done()

	for format := range jobs {
		select {
		case <-ctx.Done():
			results <- FormatResult{Format: format, Error: ctx.Err().Error()}
			continue
		default:
		}

		results <- exportFormat(ctx, list, format, opts)
	}
}

func exportFormat(ctx context.Context, list *formatter.WatchList, format string, opts ExportOpts) FormatResult {
	result := FormatResult{Format: format, Files: []string{}}

	if format == formatter.FormatMarkdown {
		md, err := formatter.WriteMarkdownExport(ctx, list, filepath.Join(opts.OutputDir, "markdown"), opts.Posters, opts.Client)
		if err != nil {
			result.Error = fmt.Sprintf("markdown export failed: %v", err)
			return result
		}
		result.Files = md.Files
		result.Success = true
		return result
	}

	path := filepath.Join(opts.OutputDir, "mylist."+formatter.Extension(format))
	written, err := formatter.WriteExport(list, format, path)
	if err != nil {
		result.Error = fmt.Sprintf("%s export failed: %v", format, err)
		return result
	}
	result.Files = []string{written}
	result.Success = true
	return result
}

// normalizeFormats lowercases, maps aliases, removes duplicates and rejects unknown names.
// An empty list or "all" selects every format.
func normalizeFormats(in []string) ([]string, error) {
	if len(in) == 0 {
		return slices.Clone(formatter.Formats), nil
	}

	var out []string
	for _, f := range in {
		f = strings.ToLower(strings.TrimSpace(f))
		switch f {
		case "all":
			return slices.Clone(formatter.Formats), nil
		case "md":
			f = formatter.FormatMarkdown
		case "text":
			f = formatter.FormatText
		}
		if !slices.Contains(formatter.Formats, f) {
			return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out, nil
}
