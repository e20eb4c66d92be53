package push

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/d60-Lab/chirp/pkg/dto"
	"github.com/d60-Lab/chirp/pkg/logger"
)

// NATSBroker 使用与推送频道同名的 NATS subject
type NATSBroker struct {
	conn *nats.Conn
}

func NewNATSBroker(url string) (*NATSBroker, error) {
	conn, err := nats.Connect(url,
		nats.Name("chirp-push"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}
	return &NATSBroker{conn: conn}, nil
}

func (b *NATSBroker) Publish(_ context.Context, ev dto.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.conn.Publish(ev.Channel, payload)
}

func (b *NATSBroker) Subscribe(_ context.Context, channels []string, handler func(dto.Event)) (io.Closer, error) {
	subs := make([]*nats.Subscription, 0, len(channels))
	unsubscribe := func() error {
		var errs []error
		for _, s := range subs {
			errs = append(errs, s.Unsubscribe())
		}
		return errors.Join(errs...)
	}
	for _, ch := range channels {
		sub, err := b.conn.Subscribe(ch, func(msg *nats.Msg) {
			var ev dto.Event
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				logger.Warn("drop malformed push event", zap.String("subject", msg.Subject), zap.Error(err))
				return
			}
			handler(ev)
		})
		if err != nil {
			_ = unsubscribe()
			return nil, err
		}
		subs = append(subs, sub)
	}
	// 等服务端登记订阅后再返回
	if err := b.conn.Flush(); err != nil {
		_ = unsubscribe()
		return nil, err
	}
	return closerFunc(unsubscribe), nil
}

func (b *NATSBroker) Close() error {
	return b.conn.Drain()
}
