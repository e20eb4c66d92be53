package push

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/chirp/pkg/dto"
	"github.com/d60-Lab/chirp/pkg/logger"
)

// Dispatcher 本地异步推送执行器：请求路径只入队，worker 负责发布到 broker。
// 队列满时直接丢弃（至多一次，不重试）。
type Dispatcher struct {
	broker Broker
	ch     chan dto.Event

	published atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

func NewDispatcher(broker Broker, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 4096
	}
	return &Dispatcher{broker: broker, ch: make(chan dto.Event, queueSize)}
}

// Start 启动 workers 个发布协程；返回的停止函数会在 ctx 允许的时间内排空队列。
func (d *Dispatcher) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case ev := <-d.ch:
					d.publish(ev)
				case <-stopCh:
					return
				}
			}
		}()
	}

	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() {
			// 等待队列自然排空，超时则放弃剩余事件
			ticker := time.NewTicker(20 * time.Millisecond)
			defer ticker.Stop()
			for len(d.ch) > 0 {
				select {
				case <-ctx.Done():
					logger.Warn("push dispatcher stopped with pending events", zap.Int("pending", len(d.ch)))
					close(stopCh)
					wg.Wait()
					return
				case <-ticker.C:
				}
			}
			close(stopCh)
			wg.Wait()
		})
		return nil
	}
}

func (d *Dispatcher) publish(ev dto.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.broker.Publish(ctx, ev); err != nil {
		d.failed.Add(1)
		logger.Warn("push publish failed", zap.String("event", ev.Event), zap.Error(err))
		return
	}
	d.published.Add(1)
}

// Publish 编码并入队；不会阻塞调用方
func (d *Dispatcher) Publish(channel, event string, payload interface{}) {
	ev, err := dto.NewEvent(channel, event, payload)
	if err != nil {
		logger.Error("encode push event", zap.String("event", event), zap.Error(err))
		return
	}
	d.Enqueue(ev)
}

// Enqueue 入队，队列满时丢弃并返回 false
func (d *Dispatcher) Enqueue(ev dto.Event) bool {
	select {
	case d.ch <- ev:
		return true
	default:
		d.dropped.Add(1)
		logger.Warn("push queue full, drop event", zap.String("channel", ev.Channel), zap.String("event", ev.Event))
		return false
	}
}

// QueueLen 返回当前队列长度（采样值）。
func (d *Dispatcher) QueueLen() int { return len(d.ch) }

// Stats 返回累计的发布 / 丢弃 / 失败次数
func (d *Dispatcher) Stats() (published, dropped, failed int64) {
	return d.published.Load(), d.dropped.Load(), d.failed.Load()
}
