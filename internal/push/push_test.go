package push

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	natstest "github.com/nats-io/nats-server/v2/test"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/chirp/pkg/dto"
)

type recordingBroker struct {
	mu     sync.Mutex
	events []dto.Event
	fail   bool
}

func (b *recordingBroker) Publish(_ context.Context, ev dto.Event) error {
	if b.fail {
		return errors.New("broker down")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

func (b *recordingBroker) Subscribe(context.Context, []string, func(dto.Event)) (io.Closer, error) {
	return closerFunc(func() error { return nil }), nil
}

func (b *recordingBroker) Close() error { return nil }

func (b *recordingBroker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func TestDispatcher_PublishesInBackground(t *testing.T) {
	broker := &recordingBroker{}
	d := NewDispatcher(broker, 16)
	stop := d.Start(2)

	for i := 0; i < 5; i++ {
		d.Publish(dto.ChannelTweet, dto.EventTweetLikes, dto.LikesEvent{TweetID: "t1", UserID: "u1", Liked: true})
	}
	require.NoError(t, stop(context.Background()))

	assert.Equal(t, 5, broker.count())
	published, dropped, failed := d.Stats()
	assert.Equal(t, int64(5), published)
	assert.Zero(t, dropped)
	assert.Zero(t, failed)
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	d := NewDispatcher(&recordingBroker{}, 1)
	// 未启动 worker，第二条必然溢出
	assert.True(t, d.Enqueue(dto.Event{Channel: dto.ChannelTweet, Event: dto.EventTweetNew}))
	assert.False(t, d.Enqueue(dto.Event{Channel: dto.ChannelTweet, Event: dto.EventTweetNew}))

	_, dropped, _ := d.Stats()
	assert.Equal(t, int64(1), dropped)
	assert.Equal(t, 1, d.QueueLen())
}

func TestDispatcher_BrokerFailureIsNotRetried(t *testing.T) {
	broker := &recordingBroker{fail: true}
	d := NewDispatcher(broker, 4)
	stop := d.Start(1)
	d.Publish(dto.ChannelTweet, dto.EventTweetNew, dto.NewTweetEvent{})
	require.NoError(t, stop(context.Background()))

	_, _, failed := d.Stats()
	assert.Equal(t, int64(1), failed)
}

func TestRedisBroker_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	broker := NewRedisBroker(client)
	ctx := context.Background()

	got := make(chan dto.Event, 1)
	sub, err := broker.Subscribe(ctx, Channels, func(ev dto.Event) { got <- ev })
	require.NoError(t, err)
	defer sub.Close()

	ev, err := dto.NewEvent(dto.ChannelTweet, dto.EventTweetRetweets, dto.RetweetsEvent{TweetID: "t1", UserID: "u2", Retweeted: true})
	require.NoError(t, err)
	require.NoError(t, broker.Publish(ctx, ev))

	select {
	case recv := <-got:
		assert.Equal(t, dto.EventTweetRetweets, recv.Event)
		payload, err := recv.Decode()
		require.NoError(t, err)
		assert.Equal(t, "u2", payload.(*dto.RetweetsEvent).UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestNATSBroker_RoundTrip(t *testing.T) {
	srv := natstest.RunRandClientPortServer()
	t.Cleanup(srv.Shutdown)

	broker, err := NewNATSBroker(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(func() { _ = broker.Close() })
	ctx := context.Background()

	got := make(chan dto.Event, 2)
	sub, err := broker.Subscribe(ctx, Channels, func(ev dto.Event) { got <- ev })
	require.NoError(t, err)

	ev, err := dto.NewEvent(dto.ChannelNotification, dto.EventNotificationNew, dto.NotificationEvent{
		Notification: dto.Notification{ID: "n1", Notifyee: dto.MiniProfile{ID: "u2"}, Notifyer: dto.MiniProfile{ID: "u1"}},
	})
	require.NoError(t, err)
	require.NoError(t, broker.Publish(ctx, ev))

	select {
	case recv := <-got:
		assert.Equal(t, dto.ChannelNotification, recv.Channel)
		payload, err := recv.Decode()
		require.NoError(t, err)
		assert.Equal(t, "u2", payload.(*dto.NotificationEvent).Notification.Notifyee.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	// 取消订阅后不再投递
	require.NoError(t, sub.Close())
	require.NoError(t, broker.Publish(ctx, ev))
	select {
	case <-got:
		t.Fatal("delivered after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}

func dialHub(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(ws, userID)
	}))
	t.Cleanup(srv.Close)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readEvent(t *testing.T, ws *websocket.Conn) (dto.Event, error) {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var ev dto.Event
	err := ws.ReadJSON(&ev)
	return ev, err
}

func TestHub_RoutesNotificationsToNotifyeeOnly(t *testing.T) {
	hub := NewHub(8)
	target := dialHub(t, hub, "target")
	other := dialHub(t, hub, "other")
	anon := dialHub(t, hub, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, time.Second, 10*time.Millisecond)

	notif, err := dto.NewEvent(dto.ChannelNotification, dto.EventNotificationNew, dto.NotificationEvent{
		Notification: dto.Notification{ID: "n1", Notifyee: dto.MiniProfile{ID: "target"}, Notifyer: dto.MiniProfile{ID: "actor"}},
	})
	require.NoError(t, err)
	hub.Broadcast(notif)

	ev, err := readEvent(t, target)
	require.NoError(t, err)
	assert.Equal(t, dto.EventNotificationNew, ev.Event)

	_, err = readEvent(t, other)
	assert.Error(t, err)
	_, err = readEvent(t, anon)
	assert.Error(t, err)
}

func TestHub_BroadcastsTweetEventsToEveryone(t *testing.T) {
	hub := NewHub(8)
	a := dialHub(t, hub, "a")
	b := dialHub(t, hub, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	ev, err := dto.NewEvent(dto.ChannelTweet, dto.EventTweetLikes, dto.LikesEvent{TweetID: "t1", UserID: "a", Liked: true})
	require.NoError(t, err)
	hub.Broadcast(ev)

	for _, ws := range []*websocket.Conn{a, b} {
		got, err := readEvent(t, ws)
		require.NoError(t, err)
		assert.Equal(t, dto.EventTweetLikes, got.Event)
	}
}

func TestHub_RunClosesConnectionsOnShutdown(t *testing.T) {
	hub := NewHub(8)
	ws := dialHub(t, hub, "a")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx, &recordingBroker{}) }()
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, 0, hub.ClientCount())
	_, err := readEvent(t, ws)
	assert.Error(t, err)
}
