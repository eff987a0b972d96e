package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ScanFiles Phase = iota
	UploadFiles
	UploadComplete
)

func (p Phase) String() string {
	switch p {
	case ScanFiles:
		return "scan_files"
	case UploadFiles:
		return "upload_files"
	case UploadComplete:
		return "upload_complete"
	default:
		return ""
	}
}

func scanUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanFiles,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Uploading %d files...", total),
	}
}

func uploadingUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Uploading: %s...", step, total, title),
	}
}

func uploadedUpdate(step, total int, res FileResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s → %s", step, total, res.Title, res.URL)
	if !res.Indexed {
		msg += " (not indexed)"
	}
	return ProgressUpdate{
		Phase:   UploadFiles,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func uploadFailedUpdate(step, total int, res FileResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Title, res.Error),
		Data:    res,
	}
}

func completeUpdate(result *BulkUploadResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadComplete,
		Step:    result.Total,
		Total:   result.Total,
		Message: fmt.Sprintf("Done: %d uploaded, %d failed", result.Succeeded, result.Failed),
		Data:    result,
	}
}
