// Package push 把实时更新事件从 API 投递到在线客户端。至多一次：不确认、不落盘、不重试。
package push

import (
	"context"
	"io"

	"github.com/d60-Lab/chirp/pkg/dto"
)

// Channels 网关订阅的全部频道
var Channels = []string{dto.ChannelTweet, dto.ChannelNotification}

// Broker API 实例与 websocket 网关之间的发布订阅通道
type Broker interface {
	Publish(ctx context.Context, ev dto.Event) error
	// Subscribe 把频道事件交给 handler，直到返回的 closer 被关闭
	Subscribe(ctx context.Context, channels []string, handler func(dto.Event)) (io.Closer, error)
	Close() error
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
