package infrastructure

import (
	"context"
)

// MessagePublisher публикует события в брокер сообщений
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}
