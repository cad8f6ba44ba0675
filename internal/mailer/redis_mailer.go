package mailer

import (
	"context"
	"encoding/json"

	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisMailer pushes messages onto a Redis list drained by an external relay.
type RedisMailer struct {
	client *redis.Client
	list   string
}

func NewRedisMailer(redisURL, list string) (*RedisMailer, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisMailerFromClient(client, list), nil
}

func NewRedisMailerFromClient(client *redis.Client, list string) *RedisMailer {
	return &RedisMailer{
		client: client,
		list:   list,
	}
}

func (r *RedisMailer) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if err := r.client.LPush(ctx, r.list, data).Err(); err != nil {
		logger.Log.Error("Failed to enqueue message",
			zap.String("message_id", msg.ID),
			zap.String("list", r.list),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Debug("Message enqueued",
		zap.String("message_id", msg.ID),
		zap.String("list", r.list),
	)
	return nil
}

func (r *RedisMailer) Close() error {
	return r.client.Close()
}
