// Package console implements an audit.Sink that writes events to the
// structured log. Suitable for development and for deployments that ship
// logs to an external collector.
package console

import (
	"context"

	"go.uber.org/zap"

	"github.com/bucketfm/bucketfm/pkg/audit"
)

// Sink logs one entry per audit event.
type Sink struct {
	logger *zap.Logger
}

// New creates a console sink writing through the given logger.
func New(logger *zap.Logger) *Sink {
	return &Sink{logger: logger.Named("audit")}
}

// Record writes the event as a structured log entry.
func (s *Sink) Record(ctx context.Context, event audit.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Info("audit event",
		zap.String("event_id", event.ID),
		zap.Time("at", event.Timestamp),
		zap.String("user", event.UserID),
		zap.String("action", event.Action),
		zap.String("path", event.Path),
		zap.String("details", event.Details),
	)

	return nil
}

// Close is a no-op; the logger is owned by the caller.
func (s *Sink) Close() error {
	return nil
}
