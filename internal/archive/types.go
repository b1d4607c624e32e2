// Package archive writes finished receptionist transcripts to S3.
package archive

import "time"

// RecordVersion is bumped when SessionRecord changes shape.
const RecordVersion = "1.0"

// Session categories.
const (
	CategoryBooked      = "booked"
	CategoryAlternate   = "alternate_intent"
	CategoryNoBooking   = "no_booking"
	CategoryAbandoned   = "abandoned"
	CategoryUnqualified = "unqualified"
)

// SessionRecord is the archived form of one receptionist session.
type SessionRecord struct {
	Version         string    `json:"version"`
	SessionID       string    `json:"session_id"`
	CallerHash      string    `json:"caller_hash,omitempty"` // sha256 of the caller number
	ArchivedAt      time.Time `json:"archived_at"`
	DurationSeconds int       `json:"duration_seconds"`
	MessageCount    int       `json:"message_count"`
	Category        string    `json:"category"`
	Intent          string    `json:"intent,omitempty"`
	EventID         string    `json:"event_id,omitempty"`
	Messages        []Message `json:"messages"`
}

// Message is a single transcript line.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ManifestEntry is one JSONL line in the monthly manifest file.
type ManifestEntry struct {
	SessionID    string `json:"session_id"`
	S3Key        string `json:"s3_key"`
	Category     string `json:"category"`
	Intent       string `json:"intent,omitempty"`
	ArchivedAt   string `json:"archived_at"`
	MessageCount int    `json:"message_count"`
}
