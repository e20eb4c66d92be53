package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/d60-Lab/chirp/pkg/dto"
)

// Subscription 一条推送连接。Close 释放连接与读协程，可重复调用、可跨协程调用
type Subscription struct {
	ws   *websocket.Conn
	done chan struct{}

	once   sync.Once
	mu     sync.Mutex
	closed bool
	err    error
}

// Listen 连接推送端点，对每个事件调用 handler，直到 Close 或 ctx 结束。
// handler 在读协程中执行
func (c *Client) Listen(ctx context.Context, handler func(dto.Event)) (*Subscription, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, c.PushURL(), nil)
	if err != nil {
		return nil, err
	}
	sub := &Subscription{ws: ws, done: make(chan struct{})}
	go sub.read(handler)
	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

func (s *Subscription) read(handler func(dto.Event)) {
	defer close(s.done)
	for {
		var ev dto.Event
		if err := s.ws.ReadJSON(&ev); err != nil {
			s.mu.Lock()
			if !s.closed {
				s.err = err
			}
			s.mu.Unlock()
			return
		}
		handler(ev)
	}
}

func deadline() time.Time { return time.Now().Add(time.Second) }

// Close 关闭连接并等待读协程退出；不能在 handler 内调用
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.ws.WriteControl(websocket.CloseMessage, msg, deadline())
		err = s.ws.Close()
	})
	<-s.done
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}

// Done 读协程退出后关闭
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err 非 Close 导致断开时的原因
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
