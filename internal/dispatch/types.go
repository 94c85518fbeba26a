package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

//go:generate mockgen -destination=mocks/mock_observer.go -package=mocks github.com/mattjoyce/zoomhook/internal/dispatch Observer

// Observer is notified of every acknowledged (non-challenge) event.
// Errors are logged by the Dispatcher and never change the response.
type Observer interface {
	Observe(ctx context.Context, ev Event) error
}

// Event names with special handling.
const (
	EventURLValidation      = "endpoint.url_validation"
	EventRecordingCompleted = "recording.completed"
)

// MessageWebhookReceived is the acknowledgement text for generic events.
const MessageWebhookReceived = "Webhook received"

// MessageInvalidRequest is returned to callers whose body is not valid JSON.
const MessageInvalidRequest = "Invalid request format"

// Event is a parsed webhook body.
type Event struct {
	// Name is the "event" field; empty when absent or not a string.
	Name string
	// Payload is the raw "payload" field, nil when absent.
	Payload json.RawMessage
	// Timestamp is "event_ts" in milliseconds, 0 when absent.
	Timestamp int64
}

// ChallengeRequest is narrowed from a url_validation Event.
type ChallengeRequest struct {
	PlainToken string
}

// RecordingFile is one entry of payload.object.recording_files.
type RecordingFile struct {
	ID             string `json:"id,omitempty"`
	FileType       string `json:"file_type,omitempty"`
	FileExtension  string `json:"file_extension,omitempty"`
	FileSize       int64  `json:"file_size,omitempty"`
	RecordingType  string `json:"recording_type,omitempty"`
	RecordingStart string `json:"recording_start,omitempty"`
	RecordingEnd   string `json:"recording_end,omitempty"`
	DownloadURL    string `json:"download_url,omitempty"`
	Status         string `json:"status,omitempty"`
}

// RecordingCompleted is narrowed from a recording.completed Event.
type RecordingCompleted struct {
	MeetingUUID    string
	Topic          string
	HostEmail      string
	RecordingFiles []RecordingFile
}

// Acknowledgement is the response body for generic events.
type Acknowledgement struct {
	Message string `json:"message"`
	Event   string `json:"event"`
}

// Kind tells which path produced a Result.
type Kind int

const (
	KindEvent Kind = iota
	KindChallenge
)

func (k Kind) String() string {
	if k == KindChallenge {
		return "challenge"
	}
	return "event"
}

// Result is a successful dispatch outcome.
type Result struct {
	Kind   Kind
	Status int
	// Body is JSON-encoded as the response.
	Body any
	// Event is the parsed body, for logging.
	Event Event
}

// ParseError reports a body that is not a JSON object.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid request format: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// isJSONString reports whether raw holds a JSON string literal.
func isJSONString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}
