package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/chirp/internal/api/middleware"
	"github.com/d60-Lab/chirp/pkg/dto"
	"github.com/d60-Lab/chirp/pkg/response"
)

// GetProfile 用户资料
// @Summary 用户资料
// @Tags 用户
// @Produce json
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=dto.Profile}
// @Failure 404 {object} response.Response
// @Router /api/v1/profiles/{id} [get]
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.profiles.GetByID(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, p)
}

// GetFollowers 粉丝列表
// @Summary 粉丝列表
// @Tags 用户
// @Produce json
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=[]dto.MiniProfile}
// @Router /api/v1/profiles/{id}/followers [get]
func (h *Handler) GetFollowers(c *gin.Context) {
	list, err := h.profiles.GetFollowers(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, list)
}

// GetFollows 关注列表
// @Summary 关注列表
// @Tags 用户
// @Produce json
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=[]dto.MiniProfile}
// @Router /api/v1/profiles/{id}/follows [get]
func (h *Handler) GetFollows(c *gin.Context) {
	list, err := h.profiles.GetFollows(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, list)
}

// ToggleFollow 关注 / 取消关注
// @Summary 切换关注
// @Description 关注时给对方发送 NEW_FOLLOWER 通知，取消关注不通知
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Param id path string true "被关注的用户ID"
// @Success 200 {object} response.Response{data=dto.FollowResult}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/profiles/{id}/follow [post]
func (h *Handler) ToggleFollow(c *gin.Context) {
	res, err := h.profiles.ToggleFollow(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, res)
}

// InfiniteProfiles 按名称搜索用户
// @Summary 搜索用户（游标分页）
// @Tags 用户
// @Produce json
// @Param searchTerm query string false "名称关键字，忽略大小写"
// @Param limit query int false "每页数量" default(10)
// @Param cursorId query string false "上一页最后一个用户的 id"
// @Success 200 {object} response.Response{data=dto.ProfilePage}
// @Router /api/v1/profiles [get]
func (h *Handler) InfiniteProfiles(c *gin.Context) {
	var cursor *dto.ProfileCursor
	if id := c.Query("cursorId"); id != "" {
		cursor = &dto.ProfileCursor{ID: id}
	}
	page, err := h.profiles.InfiniteProfiles(c.Request.Context(), middleware.UserID(c), c.Query("searchTerm"), parseLimit(c), cursor)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, page)
}
