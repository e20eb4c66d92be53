package feedcache

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/chirp/pkg/dto"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func tweet(id string, likes int) dto.FeedTweet {
	return dto.FeedTweet{
		ID:        id,
		Content:   "content " + id,
		CreatedAt: base,
		LikeCount: likes,
		User:      dto.TweetUser{ID: "author", Name: "Author"},
		Comments:  []dto.Comment{},
		Images:    []dto.Image{},
	}
}

func loaded() *Cache {
	c := New()
	c.ResetView(Feed(), Page{Tweets: []dto.FeedTweet{tweet("t3", 1), tweet("t2", 0)}, NextCursor: &dto.Cursor{ID: "t2", CreatedAt: base}})
	c.AppendPage(Feed(), Page{Tweets: []dto.FeedTweet{tweet("t1", 5)}})
	c.ResetView(ProfileFeed("author"), Page{Tweets: []dto.FeedTweet{tweet("t1", 5)}})
	c.ResetView(FollowingFeed(), Page{Tweets: []dto.FeedTweet{}})
	c.SetDetail(tweet("t1", 5))
	return c
}

func TestApplyTweetDelta_PatchesEveryCopy(t *testing.T) {
	c := loaded()

	n := c.ApplyTweetDelta(All(), "t1", SetLiked(true))
	assert.Equal(t, 3, n)

	want := tweet("t1", 6)
	want.LikedByMe = true
	if diff := cmp.Diff(want, c.Tweets(Feed())[2]); diff != "" {
		t.Errorf("feed copy mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, c.Tweets(ProfileFeed("author"))[0]); diff != "" {
		t.Errorf("profile copy mismatch (-want +got):\n%s", diff)
	}
	detail, ok := c.Detail("t1")
	require.True(t, ok)
	if diff := cmp.Diff(want, detail); diff != "" {
		t.Errorf("detail mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyTweetDelta_AbsentTweetIsNoop(t *testing.T) {
	c := loaded()
	before := c.Pages(Feed())

	assert.Equal(t, 0, c.ApplyTweetDelta(All(), "missing", LikeCountDelta(1)))
	assert.Empty(t, cmp.Diff(before, c.Pages(Feed())))
}

func TestApplyTweetDelta_RespectsMatcher(t *testing.T) {
	c := loaded()

	n := c.ApplyTweetDelta(Only(Feed()), "t1", LikeCountDelta(1))
	assert.Equal(t, 1, n)
	assert.Equal(t, 6, c.Tweets(Feed())[2].LikeCount)
	assert.Equal(t, 5, c.Tweets(ProfileFeed("author"))[0].LikeCount)

	n = c.ApplyTweetDelta(OfKind(KindDetail, KindProfileFeed), "t1", LikeCountDelta(-1))
	assert.Equal(t, 2, n)
	d, _ := c.Detail("t1")
	assert.Equal(t, 4, d.LikeCount)
}

func TestSetLiked_Idempotent(t *testing.T) {
	c := loaded()
	c.ApplyTweetDelta(All(), "t3", SetLiked(true))
	c.ApplyTweetDelta(All(), "t3", SetLiked(true))
	got := c.Tweets(Feed())[0]
	assert.Equal(t, 2, got.LikeCount)
	assert.True(t, got.LikedByMe)

	c.ApplyTweetDelta(All(), "t3", SetLiked(false))
	got = c.Tweets(Feed())[0]
	assert.Equal(t, 1, got.LikeCount)
	assert.False(t, got.LikedByMe)
}

func TestSetRetweeted(t *testing.T) {
	patched := SetRetweeted(true, "Viewer")(tweet("t", 0))
	assert.True(t, patched.RetweetedByMe)
	assert.Equal(t, 1, patched.RetweetCount)
	require.NotNil(t, patched.RetweetCreditorName)
	assert.Equal(t, "Viewer", *patched.RetweetCreditorName)

	again := SetRetweeted(true, "Viewer")(patched)
	assert.Equal(t, 1, again.RetweetCount)

	undone := SetRetweeted(false, "")(again)
	assert.Equal(t, 0, undone.RetweetCount)
	assert.Nil(t, undone.RetweetCreditorName)
}

func TestCountDeltasNeverNegative(t *testing.T) {
	assert.Equal(t, 0, LikeCountDelta(-1)(tweet("t", 0)).LikeCount)
	assert.Equal(t, 0, RetweetCountDelta(-3)(tweet("t", 0)).RetweetCount)
	assert.Equal(t, 2, RetweetCountDelta(2)(tweet("t", 0)).RetweetCount)
}

func TestAppendComment(t *testing.T) {
	c := loaded()
	comment := dto.Comment{ID: "c1", TweetID: "t1", Content: "hi", User: dto.TweetUser{ID: "viewer"}}

	assert.Equal(t, 3, c.ApplyTweetDelta(All(), "t1", AppendComment(comment, "viewer")))
	// 同一条评论经推送再次到达
	c.ApplyTweetDelta(All(), "t1", AppendComment(comment, "viewer"))

	for _, got := range []dto.FeedTweet{c.Tweets(Feed())[2], c.Tweets(ProfileFeed("author"))[0]} {
		assert.Equal(t, 1, got.CommentCount)
		assert.True(t, got.CommentedByMe)
		assert.Equal(t, []dto.Comment{comment}, got.Comments)
	}

	other := AppendComment(dto.Comment{ID: "c2", User: dto.TweetUser{ID: "someone"}}, "viewer")(tweet("t", 0))
	assert.False(t, other.CommentedByMe)
	assert.Equal(t, 1, other.CommentCount)
}

func TestPrependTweet(t *testing.T) {
	c := loaded()
	fresh := tweet("t4", 0)

	n := c.PrependTweet(OfKind(KindFeed, KindFollowingFeed, KindDetail), fresh)
	assert.Equal(t, 2, n)
	assert.Equal(t, "t4", c.Tweets(Feed())[0].ID)
	assert.Equal(t, []string{"t4"}, ids(c.Tweets(FollowingFeed())))
	_, ok := c.Detail("t4")
	assert.False(t, ok)

	// 已存在则跳过
	assert.Equal(t, 0, c.PrependTweet(Only(Feed()), fresh))
	assert.Len(t, c.Tweets(Feed()), 4)

	// 未加载的视图不会被凭空创建
	assert.Equal(t, 0, c.PrependTweet(Only(ProfileFeed("nobody")), fresh))
	assert.Empty(t, c.Pages(ProfileFeed("nobody")))
}

func TestCopiesAreIsolated(t *testing.T) {
	c := loaded()
	got := c.Tweets(Feed())
	got[0].LikeCount = 100
	got[2].Comments = append(got[2].Comments, dto.Comment{ID: "x"})

	again := c.Tweets(Feed())
	assert.Equal(t, 1, again[0].LikeCount)
	assert.Empty(t, again[2].Comments)

	// 同一 tweet 的不同视图副本不共享切片
	c.ApplyTweetDelta(Only(Feed()), "t1", AppendComment(dto.Comment{ID: "c1"}, ""))
	d, _ := c.Detail("t1")
	assert.Empty(t, d.Comments)
}

func TestNextCursor(t *testing.T) {
	c := New()
	_, ok := c.NextCursor(Feed())
	assert.False(t, ok)

	c.ResetView(Feed(), Page{Tweets: []dto.FeedTweet{tweet("t2", 0)}, NextCursor: &dto.Cursor{ID: "t2", CreatedAt: base}})
	cur, ok := c.NextCursor(Feed())
	require.True(t, ok)
	assert.Equal(t, "t2", cur.ID)

	c.AppendPage(Feed(), Page{Tweets: []dto.FeedTweet{tweet("t1", 0)}})
	cur, ok = c.NextCursor(Feed())
	assert.True(t, ok)
	assert.Nil(t, cur)
}

func TestFind(t *testing.T) {
	c := loaded()
	got, ok := c.Find("t2")
	require.True(t, ok)
	assert.Equal(t, "t2", got.ID)
	_, ok = c.Find("nope")
	assert.False(t, ok)
	assert.Len(t, c.Selectors(), 4)
}

func TestNotifications(t *testing.T) {
	c := New()
	c.SetNotifications([]dto.Notification{{ID: "n1"}})
	assert.True(t, c.AddNotification(dto.Notification{ID: "n2"}))
	assert.False(t, c.AddNotification(dto.Notification{ID: "n1"}))
	assert.Equal(t, []string{"n2", "n1"}, notificationIDs(c.Notifications()))

	assert.True(t, c.RemoveNotification("n2"))
	assert.False(t, c.RemoveNotification("n2"))
	assert.Equal(t, []string{"n1"}, notificationIDs(c.Notifications()))
}

func TestConcurrentDeltas(t *testing.T) {
	c := loaded()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.ApplyTweetDelta(All(), "t3", LikeCountDelta(1))
		}()
		go func() {
			defer wg.Done()
			_ = c.Tweets(Feed())
		}()
	}
	wg.Wait()
	assert.Equal(t, 51, c.Tweets(Feed())[0].LikeCount)
}

func ids(tweets []dto.FeedTweet) []string {
	out := make([]string, len(tweets))
	for i, t := range tweets {
		out[i] = t.ID
	}
	return out
}

func notificationIDs(list []dto.Notification) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.ID
	}
	return out
}
