package dispatch

import (
	"context"
	"log/slog"
	"strconv"
)

// LogObserver writes acknowledged events to a logger. For
// recording.completed it also logs the meeting topic and recording files.
type LogObserver struct {
	Logger *slog.Logger
}

// Observe implements Observer.
func (o LogObserver) Observe(ctx context.Context, ev Event) error {
	rec, ok := ev.RecordingCompleted()
	if !ok {
		o.Logger.DebugContext(ctx, "webhook event observed", "event", ev.Name, "payload_bytes", len(ev.Payload))
		return nil
	}

	files := make([]slog.Attr, 0, len(rec.RecordingFiles))
	for i, f := range rec.RecordingFiles {
		files = append(files, slog.Group(
			"file_"+strconv.Itoa(i),
			slog.String("id", f.ID),
			slog.String("file_type", f.FileType),
			slog.String("recording_type", f.RecordingType),
			slog.Int64("file_size", f.FileSize),
			slog.String("status", f.Status),
		))
	}

	o.Logger.LogAttrs(ctx, slog.LevelInfo, "recording completed",
		slog.String("meeting_uuid", rec.MeetingUUID),
		slog.String("topic", rec.Topic),
		slog.String("host_email", rec.HostEmail),
		slog.Int("file_count", len(rec.RecordingFiles)),
		slog.Attr{Key: "recording_files", Value: slog.GroupValue(files...)},
	)
	return nil
}
