package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/d60-Lab/chirp/internal/push"
	"github.com/d60-Lab/chirp/internal/service"
	"github.com/d60-Lab/chirp/pkg/dto"
	"github.com/d60-Lab/chirp/pkg/response"
)

// Handler HTTP 入口，只做参数绑定与错误映射
type Handler struct {
	tweets        service.TweetService
	profiles      service.ProfileService
	notifications service.NotificationService
	uploads       service.UploadService
	hub           *push.Hub
	upgrader      websocket.Upgrader
}

func NewHandler(
	tweets service.TweetService,
	profiles service.ProfileService,
	notifications service.NotificationService,
	uploads service.UploadService,
	hub *push.Hub,
) *Handler {
	return &Handler{
		tweets:        tweets,
		profiles:      profiles,
		notifications: notifications,
		uploads:       uploads,
		hub:           hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 推送内容本身是公开的，通知按 token 身份过滤
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// fail 按哨兵错误映射状态码，未知错误上报 Sentry 并返回 500
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case service.IsValidation(err):
		response.BadRequest(c, err.Error())
	case service.IsNotFound(err):
		response.NotFound(c, err.Error())
	default:
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		response.InternalError(c, err)
	}
}

var errBadCursor = errors.New("cursorId and cursorCreatedAt must be given together, cursorCreatedAt as RFC 3339")

func parseCursor(c *gin.Context) (*dto.Cursor, error) {
	id, at := c.Query("cursorId"), c.Query("cursorCreatedAt")
	if id == "" && at == "" {
		return nil, nil
	}
	if id == "" || at == "" {
		return nil, errBadCursor
	}
	ts, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return nil, errBadCursor
	}
	return &dto.Cursor{ID: id, CreatedAt: ts.UTC()}, nil
}

// parseLimit 非法值交给 service 按默认值处理
func parseLimit(c *gin.Context) int {
	n, _ := strconv.Atoi(c.Query("limit"))
	return n
}

// Health 健康检查
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} response.Response
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	data := gin.H{"status": "ok"}
	if h.hub != nil {
		data["push_clients"] = h.hub.ClientCount()
	}
	response.Success(c, data)
}
