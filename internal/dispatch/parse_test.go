package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"event":"meeting.started","event_ts":1626230691572,"payload":{"account_id":"x"}}`))
	require.NoError(t, err)

	assert.Equal(t, "meeting.started", ev.Name)
	assert.Equal(t, int64(1626230691572), ev.Timestamp)
	assert.JSONEq(t, `{"account_id":"x"}`, string(ev.Payload))
}

func TestParseEvent_NullPayloadIsAbsent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"event":"x","payload":null,"event_ts":"soon"}`))
	require.NoError(t, err)
	assert.Nil(t, ev.Payload)
	assert.Zero(t, ev.Timestamp)
}

func TestChallengeRequest(t *testing.T) {
	tests := []struct {
		name   string
		event  Event
		want   string
		wantOK bool
	}{
		{"string token", Event{Name: EventURLValidation, Payload: json.RawMessage(`{"plainToken":"abc"}`)}, "abc", true},
		{"empty string token", Event{Name: EventURLValidation, Payload: json.RawMessage(`{"plainToken":""}`)}, "", true},
		{"escaped token", Event{Name: EventURLValidation, Payload: json.RawMessage(`{"plainToken":"a\"b"}`)}, `a"b`, true},
		{"other event", Event{Name: "meeting.started", Payload: json.RawMessage(`{"plainToken":"abc"}`)}, "", false},
		{"no payload", Event{Name: EventURLValidation}, "", false},
		{"object token", Event{Name: EventURLValidation, Payload: json.RawMessage(`{"plainToken":{"v":"abc"}}`)}, "", false},
		{"string payload", Event{Name: EventURLValidation, Payload: json.RawMessage(`"abc"`)}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.event.ChallengeRequest()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.PlainToken)
		})
	}
}

func TestRecordingCompleted(t *testing.T) {
	ev := Event{
		Name: EventRecordingCompleted,
		Payload: json.RawMessage(`{"object":{
			"uuid":"4444AAAiAAAAAiAiAiiAii==",
			"topic":"My Personal Recording",
			"host_email":"host@example.com",
			"recording_files":[
				{"id":"ed6c2f27","file_type":"MP4","file_size":7220,"recording_type":"shared_screen_with_speaker_view","status":"completed"},
				{"id":"9a10f5ac","file_type":"M4A","file_size":246560,"recording_type":"audio_only","status":"completed"}
			]}}`),
	}

	rec, ok := ev.RecordingCompleted()
	require.True(t, ok)
	assert.Equal(t, "4444AAAiAAAAAiAiAiiAii==", rec.MeetingUUID)
	assert.Equal(t, "My Personal Recording", rec.Topic)
	assert.Equal(t, "host@example.com", rec.HostEmail)
	require.Len(t, rec.RecordingFiles, 2)
	assert.Equal(t, int64(246560), rec.RecordingFiles[1].FileSize)
}

func TestRecordingCompleted_MissingFields(t *testing.T) {
	rec, ok := Event{Name: EventRecordingCompleted, Payload: json.RawMessage(`{"object":{}}`)}.RecordingCompleted()
	require.True(t, ok)
	assert.Empty(t, rec.Topic)
	assert.NotNil(t, rec.RecordingFiles)
	assert.Empty(t, rec.RecordingFiles)

	_, ok = Event{Name: "meeting.started", Payload: json.RawMessage(`{"object":{}}`)}.RecordingCompleted()
	assert.False(t, ok)

	_, ok = Event{Name: EventRecordingCompleted, Payload: json.RawMessage(`{"object":"nope"}`)}.RecordingCompleted()
	assert.False(t, ok)
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	obs := LogObserver{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	ev := Event{
		Name:    EventRecordingCompleted,
		Payload: json.RawMessage(`{"object":{"topic":"Weekly sync","recording_files":[{"id":"f1","file_type":"MP4"}]}}`),
	}
	require.NoError(t, obs.Observe(context.Background(), ev))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "recording completed", out["msg"])
	assert.Equal(t, "Weekly sync", out["topic"])
	assert.Equal(t, float64(1), out["file_count"])

	files, ok := out["recording_files"].(map[string]any)
	require.True(t, ok)
	first, ok := files["file_0"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "MP4", first["file_type"])
}

func TestLogObserver_GenericEventAtDebug(t *testing.T) {
	var buf bytes.Buffer
	obs := LogObserver{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	require.NoError(t, obs.Observe(context.Background(), Event{Name: "meeting.started"}))
	assert.Empty(t, buf.String(), "generic events are logged at debug level")
}
