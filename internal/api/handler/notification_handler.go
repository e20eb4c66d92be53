package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/chirp/internal/api/middleware"
	"github.com/d60-Lab/chirp/pkg/response"
)

// ListNotifications 当前用户的通知，新的在前
// @Summary 通知列表
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]dto.Notification}
// @Failure 401 {object} response.Response
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	list, err := h.notifications.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, list)
}

// DeleteNotification 删除自己的通知
// @Summary 删除通知
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Param id path string true "通知ID"
// @Success 200 {object} response.Response{data=dto.Notification}
// @Failure 404 {object} response.Response
// @Router /api/v1/notifications/{id} [delete]
func (h *Handler) DeleteNotification(c *gin.Context) {
	n, err := h.notifications.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, n)
}
