package telemetry

import (
	"context"

	"kowaiquest/internal/logger"
)

// LogSink writes events to the structured log
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a sink that logs at info level
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log.With("service", "Telemetry")}
}

func (s *LogSink) Track(_ context.Context, e Event) {
	kv := []interface{}{"event", e.Name, "insert_id", e.InsertID}
	if e.TrainerID != "" {
		kv = append(kv, "trainer_id", e.TrainerID)
	}
	if len(e.Properties) > 0 {
		kv = append(kv, "properties", e.Properties)
	}
	s.log.Info("telemetry event", kv...)
}
