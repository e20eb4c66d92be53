package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/chirp/internal/model"
)

func TestFollow_CreateIsIdempotent(t *testing.T) {
	db := setupDB(t)
	seedUsers(t, db, "a", "b", "c")
	repo := NewFollowRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "a", "b"))
	require.NoError(t, repo.Create(ctx, "a", "b"))
	require.NoError(t, repo.Create(ctx, "c", "b"))

	var cnt int64
	require.NoError(t, db.Model(&model.Follow{}).Count(&cnt).Error)
	assert.Equal(t, int64(2), cnt)

	ids, err := repo.FollowerIDs(ctx, "b")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c"}, ids)

	follows, err := repo.FollowingIDs(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, follows)
}

func TestFollow_Delete(t *testing.T) {
	db := setupDB(t)
	seedUsers(t, db, "a", "b")
	repo := NewFollowRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "a", "b"))
	deleted, err := repo.Delete(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, deleted)

	exists, err := repo.Exists(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, exists)
}
