package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/chirp/internal/api/middleware"
	"github.com/d60-Lab/chirp/pkg/dto"
	"github.com/d60-Lab/chirp/pkg/response"
)

// CreateTweet 发布推文
// @Summary 发布推文
// @Tags 推文
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateTweetRequest true "推文内容"
// @Success 200 {object} response.Response{data=dto.FeedTweet}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/tweets [post]
func (h *Handler) CreateTweet(c *gin.Context) {
	var req dto.CreateTweetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	tweet, err := h.tweets.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, tweet)
}

// InfiniteFeed 全站或关注 feed
// @Summary 推文 feed（游标分页）
// @Tags 推文
// @Produce json
// @Param onlyFollowing query bool false "只看关注的人"
// @Param limit query int false "每页数量" default(10)
// @Param cursorId query string false "上一页最后一条的 id"
// @Param cursorCreatedAt query string false "上一页最后一条的创建时间 (RFC 3339)"
// @Success 200 {object} response.Response{data=dto.FeedPage}
// @Failure 400 {object} response.Response
// @Router /api/v1/tweets/feed [get]
func (h *Handler) InfiniteFeed(c *gin.Context) {
	cursor, err := parseCursor(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	onlyFollowing, _ := strconv.ParseBool(c.Query("onlyFollowing"))
	page, err := h.tweets.InfiniteFeed(c.Request.Context(), middleware.UserID(c), onlyFollowing, parseLimit(c), cursor)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, page)
}

// InfiniteProfileFeed 某用户发布或转推的推文
// @Summary 用户主页 feed
// @Tags 推文
// @Produce json
// @Param id path string true "用户ID"
// @Param limit query int false "每页数量" default(10)
// @Param cursorId query string false "上一页最后一条的 id"
// @Param cursorCreatedAt query string false "上一页最后一条的创建时间 (RFC 3339)"
// @Success 200 {object} response.Response{data=dto.FeedPage}
// @Router /api/v1/profiles/{id}/tweets [get]
func (h *Handler) InfiniteProfileFeed(c *gin.Context) {
	cursor, err := parseCursor(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.tweets.InfiniteProfileFeed(c.Request.Context(), middleware.UserID(c), c.Param("id"), parseLimit(c), cursor)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, page)
}

// GetTweet 推文详情
// @Summary 推文详情
// @Tags 推文
// @Produce json
// @Param id path string true "推文ID"
// @Success 200 {object} response.Response{data=dto.FeedTweet}
// @Failure 404 {object} response.Response
// @Router /api/v1/tweets/{id} [get]
func (h *Handler) GetTweet(c *gin.Context) {
	tweet, err := h.tweets.GetByID(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, tweet)
}

// ToggleLike 点赞 / 取消点赞
// @Summary 切换点赞
// @Tags 推文
// @Produce json
// @Security BearerAuth
// @Param id path string true "推文ID"
// @Success 200 {object} response.Response{data=dto.LikeResult}
// @Failure 404 {object} response.Response
// @Router /api/v1/tweets/{id}/like [post]
func (h *Handler) ToggleLike(c *gin.Context) {
	res, err := h.tweets.ToggleLike(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, res)
}

// ToggleRetweet 转推 / 取消转推
// @Summary 切换转推
// @Tags 推文
// @Produce json
// @Security BearerAuth
// @Param id path string true "推文ID"
// @Success 200 {object} response.Response{data=dto.RetweetResult}
// @Failure 404 {object} response.Response
// @Router /api/v1/tweets/{id}/retweet [post]
func (h *Handler) ToggleRetweet(c *gin.Context) {
	res, err := h.tweets.ToggleRetweet(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, res)
}

// CreateComment 评论
// @Summary 发表评论
// @Tags 推文
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "推文ID"
// @Param request body dto.CreateCommentRequest true "评论内容"
// @Success 200 {object} response.Response{data=dto.Comment}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/tweets/{id}/comments [post]
func (h *Handler) CreateComment(c *gin.Context) {
	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	comment, err := h.tweets.CreateComment(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, comment)
}
