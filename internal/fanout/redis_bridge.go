package fanout

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "fanout:"

// RedisBridge implements Bridge using Redis pub/sub, one channel per group.
type RedisBridge struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBridge creates a Redis pub/sub bridge for fanout groups.
func NewRedisBridge(client *redis.Client, logger *zap.Logger) *RedisBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBridge{client: client, logger: logger}
}

// Publish publishes payload to the group's Redis channel.
func (r *RedisBridge) Publish(ctx context.Context, group string, payload []byte) error {
	return r.client.Publish(ctx, channelPrefix+group, payload).Err()
}

// Subscribe subscribes to the group's channel and calls deliver for each
// message, in order, from a single goroutine. The subscription is confirmed
// before Subscribe returns. Payloads still buffered after cancel are dropped.
func (r *RedisBridge) Subscribe(group string, deliver func(payload []byte)) (cancel func(), err error) {
	channel := channelPrefix + group
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancelCtx()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok || ctx.Err() != nil {
					return
				}
				deliver([]byte(msg.Payload))
			}
		}
	}()
	r.logger.Debug("subscribed to fanout channel", zap.String("channel", channel))
	return cancelCtx, nil
}
