package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/chirp/internal/cache"
	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/internal/repository"
	"github.com/d60-Lab/chirp/pkg/dto"
)

func TestToggleFollow_NotifiesOnFollowOnly(t *testing.T) {
	db := setupDB(t)
	seedUsers(t, db, "alice", "bob")
	pub := &recordingPublisher{}
	svc := NewProfileService(db, nil, pub)
	ctx := context.Background()
	notifications := repository.NewNotificationRepository(db)

	res, err := svc.ToggleFollow(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, res.AddedFollow)

	list, err := notifications.ListForNotifyee(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].NotifyerID)
	assert.Equal(t, model.NotificationNewFollower, list[0].Type)
	assert.Equal(t, "profiles", list[0].ResourcePath)
	assert.Equal(t, "alice", list[0].ResourceID)

	events := pub.byEvent(dto.EventNotificationNew)
	require.Len(t, events, 1)
	assert.Equal(t, dto.ChannelNotification, events[0].channel)
	ev := events[0].payload.(dto.NotificationEvent)
	assert.Equal(t, "bob", ev.Notification.Notifyee.ID)
	assert.Equal(t, "alice", ev.Notification.Notifyer.Name)

	res, err = svc.ToggleFollow(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, res.AddedFollow)

	cnt, err := notifications.CountForNotifyee(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)
	assert.Len(t, pub.byEvent(dto.EventNotificationNew), 1)
}

func TestToggleFollow_Rejections(t *testing.T) {
	db := setupDB(t)
	seedUsers(t, db, "alice")
	svc := NewProfileService(db, nil, nil)

	_, err := svc.ToggleFollow(context.Background(), "alice", "alice")
	assert.ErrorIs(t, err, ErrFollowSelf)
	_, err = svc.ToggleFollow(context.Background(), "alice", "ghost")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestProfile_GetByIDCounts(t *testing.T) {
	db := setupDB(t)
	seedUsers(t, db, "alice", "bob", "carol")
	seedTweets(t, db, "alice", 2)
	svc := NewProfileService(db, nil, nil)
	ctx := context.Background()

	_, err := svc.ToggleFollow(ctx, "bob", "alice")
	require.NoError(t, err)
	_, err = svc.ToggleFollow(ctx, "alice", "carol")
	require.NoError(t, err)

	p, err := svc.GetByID(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, dto.Profile{
		ID: "alice", Name: "alice", Email: "alice@example.com",
		FollowersCount: 1, FollowsCount: 1, TweetsCount: 2, IsFollowing: true,
	}, *p)

	_, err = svc.GetByID(ctx, "bob", "ghost")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestProfile_FollowersThroughCache(t *testing.T) {
	db := setupDB(t)
	seedUsers(t, db, "alice", "bob", "carol")
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	profiles := cache.NewProfileCache(repository.NewUserRepository(db), rdb, time.Minute)
	svc := NewProfileService(db, profiles, nil)
	ctx := context.Background()

	_, err := svc.ToggleFollow(ctx, "bob", "alice")
	require.NoError(t, err)
	_, err = svc.ToggleFollow(ctx, "carol", "alice")
	require.NoError(t, err)

	followers, err := svc.GetFollowers(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, followers, 2)
	// 最近关注的排在前面
	assert.Equal(t, "carol", followers[0].ID)
	assert.Equal(t, "bob@example.com", followers[1].Email)
	assert.True(t, mr.Exists("user:bob"))

	follows, err := svc.GetFollows(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []dto.MiniProfile{{ID: "alice", Name: "alice", Email: "alice@example.com"}}, follows)

	none, err := svc.GetFollowers(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestInfiniteProfiles_SearchAndCursor(t *testing.T) {
	db := setupDB(t)
	seedUsers(t, db, "Anna", "anton", "bob", "joanna")
	svc := NewProfileService(db, nil, nil)
	ctx := context.Background()

	page, err := svc.InfiniteProfiles(ctx, "", "AN", 2, nil)
	require.NoError(t, err)
	require.Len(t, page.Profiles, 2)
	assert.Equal(t, "Anna", page.Profiles[0].Name)
	assert.Equal(t, "anton", page.Profiles[1].Name)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, "anton", page.NextCursor.ID)

	page, err = svc.InfiniteProfiles(ctx, "", "AN", 2, page.NextCursor)
	require.NoError(t, err)
	require.Len(t, page.Profiles, 1)
	assert.Equal(t, "joanna", page.Profiles[0].ID)
	assert.Nil(t, page.NextCursor)
}

func TestInfiniteProfiles_SearchIsLiteralSubstring(t *testing.T) {
	db := setupDB(t)
	seedUsers(t, db, "Anna", "bob", "under_score")
	svc := NewProfileService(db, nil, nil)
	ctx := context.Background()

	page, err := svc.InfiniteProfiles(ctx, "", "_", 10, nil)
	require.NoError(t, err)
	require.Len(t, page.Profiles, 1)
	assert.Equal(t, "under_score", page.Profiles[0].Name)

	page, err = svc.InfiniteProfiles(ctx, "", "%", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Profiles)
}
