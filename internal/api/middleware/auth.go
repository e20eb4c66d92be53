package middleware

import (
	"context"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/pkg/jwt"
	"github.com/d60-Lab/chirp/pkg/logger"
	"github.com/d60-Lab/chirp/pkg/response"
)

const (
	ContextUserID   = "user_id"
	ContextUserName = "user_name"
)

// UserSyncer 把 token 中的身份写入本地 users 表
type UserSyncer interface {
	Sync(ctx context.Context, u model.User) error
}

type Auth struct {
	tokens *jwt.Manager
	users  UserSyncer
	// 已同步过的身份快照，身份字段变化时重新同步
	seen sync.Map
}

func NewAuth(tokens *jwt.Manager, users UserSyncer) *Auth {
	return &Auth{tokens: tokens, users: users}
}

// Required 没有合法 token 时返回 401
func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Optional 有合法 token 时设置身份，否则匿名放行
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.authenticate(c)
		c.Next()
	}
}

func (a *Auth) authenticate(c *gin.Context) bool {
	raw := bearerToken(c)
	if raw == "" {
		return false
	}
	claims, err := a.tokens.Verify(raw)
	if err != nil {
		logger.Debug("reject token", zap.Error(err))
		return false
	}
	if err := a.sync(c.Request.Context(), claims); err != nil {
		logger.Warn("sync user failed", zap.String("user_id", claims.UserID), zap.Error(err))
	}
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUserName, claims.Name)
	return true
}

func (a *Auth) sync(ctx context.Context, claims *jwt.Claims) error {
	if a.users == nil {
		return nil
	}
	snapshot := strings.Join([]string{claims.Name, claims.Email, claims.Image}, "\x00")
	if prev, ok := a.seen.Load(claims.UserID); ok && prev.(string) == snapshot {
		return nil
	}
	err := a.users.Sync(ctx, model.User{ID: claims.UserID, Name: claims.Name, Email: claims.Email, Image: claims.Image})
	if err != nil {
		return err
	}
	a.seen.Store(claims.UserID, snapshot)
	return nil
}

// bearerToken 读取 Authorization 头；websocket 握手无法带头时使用 ?token=
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("token")
}

// UserID 返回当前请求的用户，匿名时为空
func UserID(c *gin.Context) string { return c.GetString(ContextUserID) }

func UserName(c *gin.Context) string { return c.GetString(ContextUserName) }
