package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/chirp/internal/api/middleware"
	"github.com/d60-Lab/chirp/pkg/logger"
)

// Push 升级为 websocket 并挂到 hub；浏览器可用 ?token= 认证以接收自己的通知
// @Summary 实时推送
// @Tags 推送
// @Param token query string false "JWT"
// @Success 101
// @Router /api/v1/push [get]
func (h *Handler) Push(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写回了错误响应
		logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.Attach(ws, middleware.UserID(c))
}
