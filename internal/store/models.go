package store

import (
	"time"

	"parlacorpus/internal/corpus"
)

// Build is one persisted corpus assembly.
type Build struct {
	ID                string
	CreatedAt         time.Time
	BaseDir           string
	Archive           string
	Rows              int
	SessionsProcessed int
	SessionsSkipped   int
	SessionsFailed    int
}

// Session is the stored outcome of one candidate text file.
type Session struct {
	Position      int
	TextPath      string
	MetaPath      string
	Status        corpus.SessionStatus
	Rows          int
	Matched       int
	Unmatched     int
	MetaOnly      int
	DuplicateMeta int
	Error         string
}

// timeLayout keeps fractional seconds at fixed width so stored timestamps
// sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		if fallback, fbErr := time.Parse(time.RFC3339Nano, raw); fbErr == nil {
			return fallback
		}
		return time.Time{}
	}
	return t
}
