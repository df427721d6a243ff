// Package notify dispatches post-commit side effects: email and realtime
// events. Dispatch is fire-and-forget; failures are logged and never reach
// the caller or roll back committed financial state.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// EmailSender delivers one email. Implementations live at the boundary.
type EmailSender interface {
	SendEmail(ctx context.Context, to string, subject string, htmlBody string) error
}

// Broadcaster pushes a realtime event to connected clients, best effort.
type Broadcaster interface {
	Broadcast(ctx context.Context, event string, data map[string]any) error
}

// Dispatcher fans out notifications after a ledger operation commits.
type Dispatcher struct {
	email       EmailSender
	broadcaster Broadcaster
	logger      *zap.Logger
}

// NewDispatcher wires a Dispatcher. Either collaborator may be nil.
func NewDispatcher(email EmailSender, broadcaster Broadcaster, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{email: email, broadcaster: broadcaster, logger: logger}
}

// Email sends one email, swallowing any failure.
func (dispatcher *Dispatcher) Email(ctx context.Context, to string, subject string, htmlBody string) {
	if dispatcher == nil || dispatcher.email == nil {
		return
	}
	if err := dispatcher.email.SendEmail(ctx, to, subject, htmlBody); err != nil {
		dispatcher.logger.Warn("email send failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
	}
}

// Event broadcasts one realtime event, swallowing any failure.
func (dispatcher *Dispatcher) Event(ctx context.Context, event string, data map[string]any) {
	if dispatcher == nil || dispatcher.broadcaster == nil {
		return
	}
	if err := dispatcher.broadcaster.Broadcast(ctx, event, data); err != nil {
		dispatcher.logger.Warn("broadcast failed",
			zap.String("event", event),
			zap.Error(err))
	}
}
