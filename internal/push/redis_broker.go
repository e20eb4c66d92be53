package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/chirp/pkg/dto"
	"github.com/d60-Lab/chirp/pkg/logger"
)

// RedisBroker 基于 PUBLISH / SUBSCRIBE
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, ev dto.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, ev.Channel, payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, channels []string, handler func(dto.Event)) (io.Closer, error) {
	ps := b.client.Subscribe(ctx, channels...)
	// 等待订阅确认，避免确认前发布的消息丢失
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ps.Channel() {
			var ev dto.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Warn("drop malformed push event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			handler(ev)
		}
	}()

	return closerFunc(func() error {
		err := ps.Close()
		<-done
		return err
	}), nil
}

func (b *RedisBroker) Close() error { return nil }
