package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes one structured log line per event.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Name implements Sink.
func (s *LogSink) Name() string { return "log" }

// Handle implements Sink.
func (s *LogSink) Handle(_ context.Context, ev Event) {
	s.logger.Info("anchored",
		zap.String("event_id", ev.ID.String()),
		zap.String("data_hash", ev.DataHash.Hex()),
		zap.String("submitter", ev.Submitter),
		zap.Uint64("ordinal", ev.Ordinal),
		zap.Time("observed_at", ev.ObservedAt),
	)
}
