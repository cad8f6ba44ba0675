package mailer

import (
	"context"

	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

// LogMailer writes messages to the application log. Meant for local development.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (LogMailer) Send(_ context.Context, msg Message) error {
	logger.Named("mailer").Info("Outgoing email",
		zap.String("message_id", msg.ID),
		zap.String("from", msg.From),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

func (LogMailer) Close() error { return nil }
