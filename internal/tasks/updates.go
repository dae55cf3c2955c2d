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
	Authenticating Phase = iota
	FetchingPlaylist
	FetchingTracks
	ProcessingRecords
	LinkingPlaylist
	Summarizing
)

func (p Phase) String() string {
	switch p {
	case Authenticating:
		return "authenticating"
	case FetchingPlaylist:
		return "fetching_playlist"
	case FetchingTracks:
		return "fetching_tracks"
	case ProcessingRecords:
		return "processing_records"
	case LinkingPlaylist:
		return "linking_playlist"
	case Summarizing:
		return "summarizing"
	default:
		return ""
	}
}

func authenticatingUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authenticating,
		Step:    1,
		Total:   1,
		Message: "Authenticating with Spotify...",
	}
}

func fetchingPlaylistUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchingPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist %s...", playlistID),
	}
}

func foundPlaylistUpdate(name string, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchingTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", name, total),
	}
}

func processTrackUpdate(step, total int, artist, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProcessingRecords,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, artist, title),
	}
}

func recordFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProcessingRecords,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}

func linkingPlaylistUpdate(name string, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LinkingPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Linking %d tracks to %s...", total, name),
	}
}

func summaryUpdate(result *ImportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Summarizing,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Imported %d/%d tracks", result.Processed, result.TotalTracks),
		Data:    result,
	}
}
