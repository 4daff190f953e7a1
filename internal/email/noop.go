package email

import (
	"context"

	"go.uber.org/zap"
)

// NoopSender logs messages instead of delivering them. It is selected when
// no provider is configured.
type NoopSender struct {
	logger *zap.Logger
}

// NewNoopSender creates a NoopSender.
func NewNoopSender(logger *zap.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

func (n *NoopSender) Send(_ context.Context, msg Message) error {
	n.logger.Info("email not sent (noop sender)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Bool("html", msg.HTML != ""),
	)
	return nil
}
