package domain

// SourceFile is a per-camera deliverable: either the web-friendly transcode
// or, when that could not be produced in time, the original capture.
type SourceFile struct {
	Cam        CamID
	Path       string
	Transcoded bool
}

// RenderResult is what a completed render job hands back: the concatenated
// program output plus one downloadable file per camera in the session.
type RenderResult struct {
	SessionID  SessionID
	OutputPath string
	Sources    []SourceFile
}

// RenderProgress is pushed to the originating room while a job runs.
// Progress is a non-decreasing 0-100 percentage; ProgressFailed signals a
// terminal failure with Status carrying the error message.
type RenderProgress struct {
	SessionID SessionID `json:"sessionId"`
	Progress  int       `json:"progress"`
	Status    string    `json:"status"`
}

// ProgressFailed is the sentinel progress value for a failed render.
const ProgressFailed = -1
