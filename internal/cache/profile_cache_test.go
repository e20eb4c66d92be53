package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/internal/repository"
	"github.com/d60-Lab/chirp/pkg/database"
)

func setup(t *testing.T) (repository.UserRepository, *redis.Client, *miniredis.Miniredis) {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	users := repository.NewUserRepository(db)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, users.Upsert(context.Background(), &model.User{ID: id, Name: "name-" + id, Email: id + "@example.com"}))
	}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return users, client, mr
}

func TestMiniProfiles_ReadThrough(t *testing.T) {
	users, client, mr := setup(t)
	c := NewProfileCache(users, client, time.Minute)
	ctx := context.Background()

	got, err := c.MiniProfiles(ctx, []string{"c", "a", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "name-a", got[1].Name)
	assert.True(t, mr.Exists("user:a"))

	got, err = c.MiniProfiles(ctx, []string{"a", "c"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	hits, loads := c.Counters()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), loads)
}

func TestMiniProfiles_InvalidateReloads(t *testing.T) {
	users, client, mr := setup(t)
	c := NewProfileCache(users, client, time.Minute)
	ctx := context.Background()

	_, err := c.MiniProfiles(ctx, []string{"b"})
	require.NoError(t, err)
	require.NoError(t, users.Upsert(ctx, &model.User{ID: "b", Name: "renamed", Email: "b@example.com"}))
	require.NoError(t, c.Invalidate(ctx, "b"))
	assert.False(t, mr.Exists("user:b"))

	got, err := c.MiniProfiles(ctx, []string{"b"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", got[0].Name)
}

func TestMiniProfiles_WithoutRedis(t *testing.T) {
	users, _, _ := setup(t)
	c := NewProfileCache(users, nil, 0)

	got, err := c.MiniProfiles(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got[0].Email)
	assert.NoError(t, c.Invalidate(context.Background(), "a"))
}
