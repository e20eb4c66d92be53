package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/chirp/internal/cache"
	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/internal/repository"
	"github.com/d60-Lab/chirp/pkg/logger"
)

// UserService 同步外部身份提供方签发的用户信息
type UserService interface {
	Sync(ctx context.Context, u model.User) error
}

type userService struct {
	users    repository.UserRepository
	profiles *cache.ProfileCache
}

func NewUserService(db *gorm.DB, profiles *cache.ProfileCache) UserService {
	return &userService{users: repository.NewUserRepository(db), profiles: profiles}
}

func (s *userService) Sync(ctx context.Context, u model.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = model.Now()
	}
	if err := s.users.Upsert(ctx, &u); err != nil {
		return fmt.Errorf("sync user %s: %w", u.ID, err)
	}
	if s.profiles != nil {
		if err := s.profiles.Invalidate(ctx, u.ID); err != nil {
			logger.Warn("invalidate profile cache failed", zap.String("user_id", u.ID), zap.Error(err))
		}
	}
	return nil
}
