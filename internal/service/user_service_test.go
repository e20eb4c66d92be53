package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/chirp/internal/cache"
	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/internal/repository"
)

func TestUserService_SyncUpsertsAndInvalidates(t *testing.T) {
	db := setupDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	users := repository.NewUserRepository(db)
	profiles := cache.NewProfileCache(users, rdb, 0)
	svc := NewUserService(db, profiles)
	ctx := context.Background()

	require.NoError(t, svc.Sync(ctx, model.User{ID: "u1", Name: "First", Email: "u1@example.com"}))
	_, err := profiles.MiniProfiles(ctx, []string{"u1"})
	require.NoError(t, err)
	require.True(t, mr.Exists("user:u1"))

	require.NoError(t, svc.Sync(ctx, model.User{ID: "u1", Name: "Second", Email: "u1@example.com", Image: "https://img"}))
	assert.False(t, mr.Exists("user:u1"))

	got, err := users.FindByIDs(ctx, []string{"u1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Second", got[0].Name)
	assert.Equal(t, "https://img", got[0].Image)
	assert.False(t, got[0].CreatedAt.IsZero())
}
