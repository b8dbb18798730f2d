// Package push defines the optional best-effort live update channel.
// Delivery is fire-and-forget; the durable notification ledger is the
// source of truth regardless of whether a push arrives.
package push

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Emitter pushes a live event to a connected client, if any
type Emitter interface {
	Emit(userID uuid.UUID, event string, payload map[string]interface{})
}

// NoopEmitter is the default when no live channel is configured
type NoopEmitter struct{}

func (NoopEmitter) Emit(uuid.UUID, string, map[string]interface{}) {}

// LogEmitter records pushes to the log, useful in development
type LogEmitter struct {
	Logger *zap.Logger
}

func (e LogEmitter) Emit(userID uuid.UUID, event string, payload map[string]interface{}) {
	e.Logger.Debug("Push event",
		zap.String("user_id", userID.String()),
		zap.String("event", event),
	)
}
