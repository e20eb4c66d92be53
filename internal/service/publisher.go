package service

// EventPublisher 推送出口；实现必须不阻塞请求路径（见 push.Dispatcher）
type EventPublisher interface {
	Publish(channel, event string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, interface{}) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

const (
	defaultLimit = 10
	maxLimit     = 50
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
