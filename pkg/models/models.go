package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// Comment is the payload other services submit for checking. Only Text is inspected.
type Comment struct {
	ID       uuid.UUID `json:"id,omitempty"`
	PostID   uuid.UUID `json:"post_id,omitempty"`
	ParentID uuid.UUID `json:"parent_id,omitempty"`
	Author   string    `json:"author,omitempty"`
	Text     string    `json:"text"`
}

type CheckResult struct {
	Profane bool `json:"profane"`
}

type WordList struct {
	Mode  string   `json:"mode"`
	Words []string `json:"words"`
}

// ModerationRequest travels over NATS to a moderator.
type ModerationRequest struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ModerationResult is the moderator's reply. Error is set when the request could not be read.
type ModerationResult struct {
	ID      string `json:"id"`
	Profane bool   `json:"profane"`
	Error   string `json:"error,omitempty"`
}

// LogEntry describes one served HTTP request. It is written to Kafka and indexed by the log keeper.
type LogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	IP         string    `json:"ip"`
	StatusCode int       `json:"status_code"`
	Bytes      int       `json:"bytes"`
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Duration   float64   `json:"duration_sec"`
	Service    string    `json:"service"`
}
