package domain

import "time"

// SessionID identifies an ISO recording session. It is opaque and chosen by
// the director's client when recording starts.
type SessionID string

// CamID identifies a camera within a recording session.
type CamID string

// CaptureSession maps camera ids to the absolute paths of their uploaded
// raw captures. It is created lazily on the first successful upload and
// entries are upserted monotonically, last write per camera wins.
type CaptureSession struct {
	ID       SessionID
	Files    map[CamID]string
	LastSeen time.Time
}

// EDLEntry is one cut point of an edit-decision-list: switch to Cam at
// T milliseconds into the recording. Entry i's segment runs from T[i] to
// T[i+1] exclusive; the last entry runs to end of file.
type EDLEntry struct {
	T   int64 `json:"t"`
	Cam CamID `json:"cam"`
}

// EDL is an ordered cut list. Timestamps must be non-decreasing.
type EDL []EDLEntry

// Cams returns the distinct camera ids referenced by the list, in first
// appearance order.
func (e EDL) Cams() []CamID {
	seen := make(map[CamID]bool, len(e))
	var cams []CamID
	for _, entry := range e {
		if !seen[entry.Cam] {
			seen[entry.Cam] = true
			cams = append(cams, entry.Cam)
		}
	}
	return cams
}
