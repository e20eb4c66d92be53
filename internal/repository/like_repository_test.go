package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggle_TwiceRestoresState(t *testing.T) {
	db := setupDB(t)
	seedUsers(t, db, "alice", "bob")
	seedTweet(t, db, "t1", "alice", base)
	ctx := context.Background()

	for name, repo := range map[string]ToggleRepository{
		"like":    NewLikeRepository(db),
		"retweet": NewRetweetRepository(db),
	} {
		t.Run(name, func(t *testing.T) {
			on, err := repo.Toggle(ctx, "bob", "t1")
			require.NoError(t, err)
			assert.True(t, on)
			exists, err := repo.Exists(ctx, "bob", "t1")
			require.NoError(t, err)
			assert.True(t, exists)

			on, err = repo.Toggle(ctx, "bob", "t1")
			require.NoError(t, err)
			assert.False(t, on)
			exists, err = repo.Exists(ctx, "bob", "t1")
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}

	row, err := NewTweetRepository(db).GetRow(ctx, "t1", "bob")
	require.NoError(t, err)
	assert.Zero(t, row.LikeCount)
	assert.Zero(t, row.RetweetCount)
}
