// Package mailer delivers confirmation codes to users.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/rs/xid"
)

const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendLog   = "log"
)

// Message is one outgoing email.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Mailer sends messages. Send returns only after the message is durably handed
// off, so callers may roll back state when it fails.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// ConfirmationMessage builds the email carrying a confirmation code.
func ConfirmationMessage(from, to, username, code string) Message {
	return Message{
		ID:      xid.New().String(),
		From:    from,
		To:      to,
		Subject: "YaMDb confirmation code",
		Body: fmt.Sprintf(
			"Hello, %s!\n\nYour confirmation code: %s\n\nExchange it at /api/v1/auth/token to get an access token.\n",
			username, code,
		),
		CreatedAt: time.Now().UTC(),
	}
}

// New builds the backend selected by cfg.MailBackend.
func New(cfg *config.Config) (Mailer, error) {
	switch cfg.MailBackend {
	case BackendFile, "":
		return NewFileMailer(cfg.MailOutboxPath)
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("mail backend %q requires REDIS_URL", BackendRedis)
		}
		return NewRedisMailer(cfg.RedisURL, cfg.MailRedisList)
	case BackendLog:
		return NewLogMailer(), nil
	default:
		return nil, fmt.Errorf("unknown mail backend %q", cfg.MailBackend)
	}
}
