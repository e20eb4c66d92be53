// Package client chirp HTTP API 的 Go 客户端；Session 让 feedcache.Cache 跟随本地操作与推送事件保持一致。
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/d60-Lab/chirp/pkg/dto"
)

const apiPrefix = "/api/v1"

// APIError 非 2xx 响应
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chirp api: %d %s", e.Status, e.Message)
}

// IsNotFound 判断是否为 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	http    *resty.Client
	baseURL string
	token   string
}

// New baseURL 只含协议与主机；token 为空时只能匿名读取
func New(baseURL, token string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	r := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(10 * time.Second)
	if token != "" {
		r.SetAuthToken(token)
	}
	return &Client{http: r, baseURL: baseURL, token: token}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	req := c.http.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, apiPrefix+path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	var env envelope
	if uErr := json.Unmarshal(resp.Body(), &env); uErr != nil && resp.IsSuccess() {
		return fmt.Errorf("decode %s %s: %w", method, path, uErr)
	}
	if resp.IsError() {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return &APIError{Status: resp.StatusCode(), Message: msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func pageQuery(limit int, cursor *dto.Cursor) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != nil {
		q.Set("cursorId", cursor.ID)
		q.Set("cursorCreatedAt", cursor.CreatedAt.UTC().Format(time.RFC3339Nano))
	}
	return q
}

func (c *Client) CreateTweet(ctx context.Context, req dto.CreateTweetRequest) (*dto.FeedTweet, error) {
	var out dto.FeedTweet
	if err := c.do(ctx, http.MethodPost, "/tweets", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) InfiniteFeed(ctx context.Context, onlyFollowing bool, limit int, cursor *dto.Cursor) (*dto.FeedPage, error) {
	q := pageQuery(limit, cursor)
	if onlyFollowing {
		q.Set("onlyFollowing", "true")
	}
	var out dto.FeedPage
	if err := c.do(ctx, http.MethodGet, "/tweets/feed", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) InfiniteProfileFeed(ctx context.Context, userID string, limit int, cursor *dto.Cursor) (*dto.FeedPage, error) {
	var out dto.FeedPage
	if err := c.do(ctx, http.MethodGet, "/profiles/"+url.PathEscape(userID)+"/tweets", pageQuery(limit, cursor), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTweet(ctx context.Context, id string) (*dto.FeedTweet, error) {
	var out dto.FeedTweet
	if err := c.do(ctx, http.MethodGet, "/tweets/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ToggleLike(ctx context.Context, tweetID string) (*dto.LikeResult, error) {
	var out dto.LikeResult
	if err := c.do(ctx, http.MethodPost, "/tweets/"+url.PathEscape(tweetID)+"/like", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ToggleRetweet(ctx context.Context, tweetID string) (*dto.RetweetResult, error) {
	var out dto.RetweetResult
	if err := c.do(ctx, http.MethodPost, "/tweets/"+url.PathEscape(tweetID)+"/retweet", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateComment(ctx context.Context, tweetID, content string) (*dto.Comment, error) {
	var out dto.Comment
	body := dto.CreateCommentRequest{Content: content}
	if err := c.do(ctx, http.MethodPost, "/tweets/"+url.PathEscape(tweetID)+"/comments", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProfile(ctx context.Context, id string) (*dto.Profile, error) {
	var out dto.Profile
	if err := c.do(ctx, http.MethodGet, "/profiles/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetFollowers(ctx context.Context, userID string) ([]dto.MiniProfile, error) {
	var out []dto.MiniProfile
	err := c.do(ctx, http.MethodGet, "/profiles/"+url.PathEscape(userID)+"/followers", nil, nil, &out)
	return out, err
}

func (c *Client) GetFollows(ctx context.Context, userID string) ([]dto.MiniProfile, error) {
	var out []dto.MiniProfile
	err := c.do(ctx, http.MethodGet, "/profiles/"+url.PathEscape(userID)+"/follows", nil, nil, &out)
	return out, err
}

func (c *Client) ToggleFollow(ctx context.Context, userID string) (*dto.FollowResult, error) {
	var out dto.FollowResult
	if err := c.do(ctx, http.MethodPost, "/profiles/"+url.PathEscape(userID)+"/follow", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) InfiniteProfiles(ctx context.Context, searchTerm string, limit int, cursor *dto.ProfileCursor) (*dto.ProfilePage, error) {
	q := url.Values{}
	if searchTerm != "" {
		q.Set("searchTerm", searchTerm)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != nil {
		q.Set("cursorId", cursor.ID)
	}
	var out dto.ProfilePage
	if err := c.do(ctx, http.MethodGet, "/profiles", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Notifications(ctx context.Context) ([]dto.Notification, error) {
	var out []dto.Notification
	err := c.do(ctx, http.MethodGet, "/notifications", nil, nil, &out)
	return out, err
}

func (c *Client) DeleteNotification(ctx context.Context, id string) (*dto.Notification, error) {
	var out dto.Notification
	if err := c.do(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PresignUpload(ctx context.Context, fileType string, fileSize int64) (*dto.PresignedUpload, error) {
	var out dto.PresignedUpload
	body := dto.PresignRequest{FileType: fileType, FileSize: fileSize}
	if err := c.do(ctx, http.MethodPost, "/uploads/presign", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PushURL websocket 地址，token 放在查询参数里
func (c *Client) PushURL() string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	u += apiPrefix + "/push"
	if c.token != "" {
		u += "?token=" + url.QueryEscape(c.token)
	}
	return u
}
