package push

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/d60-Lab/chirp/pkg/dto"
	"github.com/d60-Lab/chirp/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Hub 把 broker 事件分发给本实例上的 websocket 连接；
// notification.new 只发给以被通知人身份登录的连接
type Hub struct {
	sendBuffer int

	mu      sync.RWMutex
	clients map[*conn]struct{}
}

type conn struct {
	hub    *Hub
	ws     *websocket.Conn
	userID string
	send   chan []byte
	once   sync.Once
}

func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Hub{sendBuffer: sendBuffer, clients: make(map[*conn]struct{})}
}

// Run 订阅推送频道并阻塞到 ctx 结束
func (h *Hub) Run(ctx context.Context, broker Broker) error {
	sub, err := broker.Subscribe(ctx, Channels, h.Broadcast)
	if err != nil {
		return err
	}
	<-ctx.Done()
	h.closeAll()
	return sub.Close()
}

// Attach 注册一个已升级的连接并启动读写协程；userID 为空表示匿名连接
func (h *Hub) Attach(ws *websocket.Conn, userID string) {
	c := &conn{hub: h, ws: ws, userID: userID, send: make(chan []byte, h.sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast 将事件投递给匹配的连接；发送缓冲满的连接被断开
func (h *Hub) Broadcast(ev dto.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error("encode push frame", zap.Error(err))
		return
	}

	target := ""
	if ev.Event == dto.EventNotificationNew {
		var n dto.NotificationEvent
		if err := json.Unmarshal(ev.Data, &n); err != nil {
			logger.Warn("drop malformed notification event", zap.Error(err))
			return
		}
		target = n.Notification.Notifyee.ID
		if target == "" {
			return
		}
	}

	var slow []*conn
	h.mu.RLock()
	for c := range h.clients {
		if target != "" && c.userID != target {
			continue
		}
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("push client too slow, disconnecting", zap.String("user", c.userID))
		c.close()
	}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	all := make([]*conn, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()
	for _, c := range all {
		c.close()
	}
}

func (c *conn) close() {
	c.once.Do(func() {
		c.hub.remove(c)
		close(c.send)
	})
}

func (c *conn) readPump() {
	defer c.close()
	c.ws.SetReadLimit(4096)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// 客户端不发送业务消息，读循环只用于感知断开与 pong
		if _, _, err := c.ws.NextReader(); err != nil {
			return
		}
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
