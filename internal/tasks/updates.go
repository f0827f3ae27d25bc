package tasks

import (
	"fmt"
	"strings"
)

// ProgressUpdate represents a progress event during a long-running operation.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Phase of an operation.
type Phase int

const (
	SearchTerms Phase = iota
	CollectResults
	ExportFormats
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case SearchTerms:
		return "search_terms"
	case CollectResults:
		return "collect_results"
	case ExportFormats:
		return "export_formats"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func searchTermUpdate(step, total int, term string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTerms,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching %q...", step, total, term),
	}
}

func searchTermDoneUpdate(step, total int, term string, found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTerms,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %q (%d titles)", step, total, term, found),
	}
}

func searchTermFailedUpdate(step, total int, term string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTerms,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %q: %v", step, total, term, err),
	}
}

func collectUpdate(result *BrowseResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CollectResults,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d titles for %s", len(result.Items), result.Genre),
		Data:    result,
	}
}

func exportingUpdate(formats []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportFormats,
		Step:    0,
		Total:   len(formats),
		Message: fmt.Sprintf("Exporting list as %s...", strings.Join(formats, ", ")),
	}
}

func exportCompletedUpdate(step, total int, format string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportFormats,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, format, filesCount),
	}
}

func exportFailedUpdate(step, total int, format string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportFormats,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, format, err),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written to %s", path),
	}
}
