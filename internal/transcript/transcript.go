package transcript

import (
	"fmt"
	"strings"
	"time"
)

// Line is one caption entry in playback order.
type Line struct {
	Start    time.Duration
	Duration time.Duration
	Text     string
}

type Transcript struct {
	VideoID string
	Lines   []Line
}

// Text joins all caption lines with single spaces, the shape the
// summarizer consumes.
func (t *Transcript) Text() string {
	parts := make([]string, 0, len(t.Lines))
	for _, l := range t.Lines {
		if l.Text == "" {
			continue
		}
		parts = append(parts, l.Text)
	}
	return strings.Join(parts, " ")
}

// Reason distinguishes the two terminal ways a transcript fetch fails.
type Reason string

const (
	// ReasonNoTranscript: the upstream explicitly has no captions for
	// the video. Retrying through another proxy cannot fix this.
	ReasonNoTranscript Reason = "no-transcript-available"

	// ReasonAllConnectionsFailed: every proxy attempt and the direct
	// fallback failed.
	ReasonAllConnectionsFailed Reason = "all-connections-failed"
)

// UnavailableError is the only error type Fetch surfaces to callers.
// The polling loop treats it as "skip this video, try next cycle".
type UnavailableError struct {
	VideoID string
	Reason  Reason
	Err     error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcript unavailable for %s (%s): %v", e.VideoID, e.Reason, e.Err)
	}
	return fmt.Sprintf("transcript unavailable for %s (%s)", e.VideoID, e.Reason)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
