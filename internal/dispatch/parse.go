package dispatch

import (
	"encoding/json"
	"errors"

	"github.com/go-softwarelab/common/pkg/to"
)

var errNotObject = errors.New("body is not a JSON object")

// ParseEvent decodes a webhook body. Only a JSON object is accepted; a
// non-string "event" field is treated as absent rather than an error.
func ParseEvent(body []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Event{}, &ParseError{Err: err}
	}
	if fields == nil {
		// "null" decodes into a nil map without error
		return Event{}, &ParseError{Err: errNotObject}
	}

	var ev Event
	if raw, ok := fields["event"]; ok && isJSONString(raw) {
		if err := json.Unmarshal(raw, &ev.Name); err != nil {
			return Event{}, &ParseError{Err: err}
		}
	}
	if raw, ok := fields["payload"]; ok && string(raw) != "null" {
		ev.Payload = raw
	}
	if raw, ok := fields["event_ts"]; ok {
		// event_ts is informational; ignore values that are not integers
		_ = json.Unmarshal(raw, &ev.Timestamp)
	}

	return ev, nil
}

// ChallengeRequest narrows ev into a url_validation challenge. ok is false
// unless the event name matches and payload.plainToken is a JSON string.
func (ev Event) ChallengeRequest() (ChallengeRequest, bool) {
	if ev.Name != EventURLValidation || ev.Payload == nil {
		return ChallengeRequest{}, false
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return ChallengeRequest{}, false
	}

	raw, ok := payload["plainToken"]
	if !ok || !isJSONString(raw) {
		return ChallengeRequest{}, false
	}

	var token string
	if err := json.Unmarshal(raw, &token); err != nil {
		return ChallengeRequest{}, false
	}
	return ChallengeRequest{PlainToken: token}, true
}

// recordingPayload mirrors the parts of payload.object we read.
type recordingPayload struct {
	Object *struct {
		UUID           *string         `json:"uuid"`
		Topic          *string         `json:"topic"`
		HostEmail      *string         `json:"host_email"`
		RecordingFiles []RecordingFile `json:"recording_files"`
	} `json:"object"`
}

// RecordingCompleted narrows ev into recording details. ok is false unless
// the event is recording.completed and payload.object is an object.
func (ev Event) RecordingCompleted() (RecordingCompleted, bool) {
	if ev.Name != EventRecordingCompleted || ev.Payload == nil {
		return RecordingCompleted{}, false
	}

	var p recordingPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil || p.Object == nil {
		return RecordingCompleted{}, false
	}

	files := p.Object.RecordingFiles
	if files == nil {
		files = []RecordingFile{}
	}

	return RecordingCompleted{
		MeetingUUID:    to.ValueOr(p.Object.UUID, ""),
		Topic:          to.ValueOr(p.Object.Topic, ""),
		HostEmail:      to.ValueOr(p.Object.HostEmail, ""),
		RecordingFiles: files,
	}, true
}
