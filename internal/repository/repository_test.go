package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/pkg/database"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func setupDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	return db
}

func seedUsers(t testing.TB, db *gorm.DB, names ...string) {
	t.Helper()
	for _, n := range names {
		u := model.User{ID: n, Name: n, Email: n + "@example.com", CreatedAt: base}
		require.NoError(t, db.Create(&u).Error)
	}
}

// seedTweet 写入一条指定时间的推文，返回其 id
func seedTweet(t testing.TB, db *gorm.DB, id, author string, at time.Time) string {
	t.Helper()
	tw := model.Tweet{ID: id, AuthorID: author, Content: "content " + id, CreatedAt: at}
	require.NoError(t, NewTweetRepository(db).Create(context.Background(), &tw))
	return id
}

func seedTweets(t testing.TB, db *gorm.DB, author string, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = seedTweet(t, db, fmt.Sprintf("t%02d", i+1), author, base.Add(time.Duration(i+1)*time.Minute))
	}
	return ids
}
