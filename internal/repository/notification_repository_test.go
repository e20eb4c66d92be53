package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/chirp/internal/model"
)

func TestNotification_CreateListDelete(t *testing.T) {
	db := setupDB(t)
	seedUsers(t, db, "actor", "target", "other")
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	first := &model.Notification{ID: "n1", NotifyeeID: "target", NotifyerID: "actor",
		Type: model.NotificationNewFollower, ResourcePath: "profiles", ResourceID: "actor", CreatedAt: base}
	second := &model.Notification{ID: "n2", NotifyeeID: "target", NotifyerID: "other",
		Type: model.NotificationNewFollower, ResourcePath: "profiles", ResourceID: "other", CreatedAt: base.Add(time.Minute)}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, "actor", first.Notifyer.Name)
	assert.Equal(t, "target", first.Notifyee.Name)

	list, err := repo.ListForNotifyee(ctx, "target")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID)

	// 非本人不能删除
	_, err = repo.DeleteOwned(ctx, "n1", "actor")
	assert.True(t, IsNotFound(err))

	deleted, err := repo.DeleteOwned(ctx, "n1", "target")
	require.NoError(t, err)
	assert.Equal(t, "n1", deleted.ID)

	cnt, err := repo.CountForNotifyee(ctx, "target")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)
}
