package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_ListAndDeleteOwned(t *testing.T) {
	db := setupDB(t)
	seedUsers(t, db, "alice", "bob", "carol")
	profiles := NewProfileService(db, nil, nil)
	svc := NewNotificationService(db)
	ctx := context.Background()

	_, err := profiles.ToggleFollow(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = profiles.ToggleFollow(ctx, "carol", "bob")
	require.NoError(t, err)

	list, err := svc.List(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "carol", list[0].Notifyer.ID)
	assert.Equal(t, "NEW_FOLLOWER", list[0].Type)

	// 非 notifyee 删除视为不存在
	_, err = svc.Delete(ctx, "alice", list[0].ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	deleted, err := svc.Delete(ctx, "bob", list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, list[0].ID, deleted.ID)
	assert.Equal(t, "bob", deleted.Notifyee.ID)

	list, err = svc.List(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	empty, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
