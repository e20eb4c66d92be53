package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/internal/repository"
	"github.com/d60-Lab/chirp/pkg/database"
	"github.com/d60-Lab/chirp/pkg/dto"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type published struct {
	channel string
	event   string
	payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(channel, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{channel: channel, event: event, payload: payload})
}

func (p *recordingPublisher) byEvent(name string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.events {
		if e.event == name {
			out = append(out, e)
		}
	}
	return out
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	return db
}

func seedUsers(t *testing.T, db *gorm.DB, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, db.Create(&model.User{ID: n, Name: n, Email: n + "@example.com", CreatedAt: base}).Error)
	}
}

// seedTweets 写入 n 条按分钟递增的推文：t01 最早
func seedTweets(t *testing.T, db *gorm.DB, author string, n int) []string {
	t.Helper()
	repo := repository.NewTweetRepository(db)
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = fmt.Sprintf("t%02d", i+1)
		tw := model.Tweet{ID: ids[i], AuthorID: author, Content: "tweet " + ids[i], CreatedAt: base.Add(time.Duration(i+1) * time.Minute)}
		require.NoError(t, repo.Create(context.Background(), &tw))
	}
	return ids
}

func tweetIDs(tweets []dto.FeedTweet) []string {
	out := make([]string, len(tweets))
	for i, t := range tweets {
		out[i] = t.ID
	}
	return out
}
