package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/chirp/internal/repository"
	"github.com/d60-Lab/chirp/pkg/dto"
	"github.com/d60-Lab/chirp/pkg/logger"
)

// ProfileCache 按用户 id 缓存 MiniProfile 快照（read-through）。redis 为 nil 时直接读库
type ProfileCache struct {
	users repository.UserRepository
	cache *redis.Client
	ttl   time.Duration

	hits      atomic.Int64
	bulkLoads atomic.Int64
}

func NewProfileCache(users repository.UserRepository, cache *redis.Client, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ProfileCache{users: users, cache: cache, ttl: ttl}
}

func userKey(id string) string { return fmt.Sprintf("user:%s", id) }

// MiniProfiles 按 ids 顺序返回快照，跳过不存在的用户
func (s *ProfileCache) MiniProfiles(ctx context.Context, ids []string) ([]dto.MiniProfile, error) {
	if len(ids) == 0 {
		return []dto.MiniProfile{}, nil
	}

	cached := make(map[string]dto.MiniProfile, len(ids))
	if s.cache != nil {
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = userKey(id)
		}
		if vals, err := s.cache.MGet(ctx, keys...).Result(); err == nil {
			for i, v := range vals {
				str, ok := v.(string)
				if !ok {
					continue
				}
				var snap dto.MiniProfile
				if uErr := json.Unmarshal([]byte(str), &snap); uErr == nil {
					cached[ids[i]] = snap
					s.hits.Add(1)
				}
			}
		} else {
			logger.Warn("profile cache mget failed", zap.Error(err))
		}
	}

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := cached[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		s.bulkLoads.Add(1)
		users, err := s.users.FindByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		var pipe redis.Pipeliner
		if s.cache != nil {
			pipe = s.cache.Pipeline()
		}
		for _, u := range users {
			snap := dto.MiniProfile{ID: u.ID, Name: u.Name, Image: u.Image, Email: u.Email}
			cached[u.ID] = snap
			if pipe == nil {
				continue
			}
			if payload, err := json.Marshal(snap); err == nil {
				pipe.Set(ctx, userKey(u.ID), payload, s.ttl)
			}
		}
		if pipe != nil {
			if _, err := pipe.Exec(ctx); err != nil {
				logger.Warn("profile cache fill failed", zap.Error(err))
			}
		}
	}

	result := make([]dto.MiniProfile, 0, len(ids))
	for _, id := range ids {
		if snap, ok := cached[id]; ok {
			result = append(result, snap)
		}
	}
	return result, nil
}

// Invalidate 删除单个用户的快照
func (s *ProfileCache) Invalidate(ctx context.Context, id string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, userKey(id)).Err()
}

// Counters 启动以来的命中次数与批量回源次数
func (s *ProfileCache) Counters() (hits, bulkLoads int64) {
	return s.hits.Load(), s.bulkLoads.Load()
}
