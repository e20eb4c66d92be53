package client

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/chirp/pkg/dto"
	"github.com/d60-Lab/chirp/pkg/feedcache"
	"github.com/d60-Lab/chirp/pkg/logger"
)

// Session 绑定一个观看者及其已加载内容的缓存。本地操作乐观应用，
// 观看者自己触发的推送事件直接忽略。
type Session struct {
	client     *Client
	cache      *feedcache.Cache
	viewerID   string
	viewerName string
}

func NewSession(client *Client, viewerID, viewerName string) *Session {
	return &Session{client: client, cache: feedcache.New(), viewerID: viewerID, viewerName: viewerName}
}

func (s *Session) Cache() *feedcache.Cache { return s.cache }

func (s *Session) Client() *Client { return s.client }

func (s *Session) fetch(ctx context.Context, sel feedcache.Selector, limit int, cursor *dto.Cursor) (*dto.FeedPage, error) {
	switch sel.Kind {
	case feedcache.KindFeed:
		return s.client.InfiniteFeed(ctx, false, limit, cursor)
	case feedcache.KindFollowingFeed:
		return s.client.InfiniteFeed(ctx, true, limit, cursor)
	case feedcache.KindProfileFeed:
		return s.client.InfiniteProfileFeed(ctx, sel.UserID, limit, cursor)
	}
	return nil, fmt.Errorf("%s is not an infinite view", sel.Kind)
}

// Load 重新加载列表第一页
func (s *Session) Load(ctx context.Context, sel feedcache.Selector, limit int) error {
	page, err := s.fetch(ctx, sel, limit, nil)
	if err != nil {
		return err
	}
	s.cache.ResetView(sel, feedcache.Page{Tweets: page.Tweets, NextCursor: page.NextCursor})
	return nil
}

// LoadMore 加载下一页；没有更多或出错时返回 false
func (s *Session) LoadMore(ctx context.Context, sel feedcache.Selector, limit int) (bool, error) {
	cursor, loaded := s.cache.NextCursor(sel)
	if !loaded {
		if err := s.Load(ctx, sel, limit); err != nil {
			return false, err
		}
		next, _ := s.cache.NextCursor(sel)
		return next != nil, nil
	}
	if cursor == nil {
		return false, nil
	}
	page, err := s.fetch(ctx, sel, limit, cursor)
	if err != nil {
		return false, err
	}
	s.cache.AppendPage(sel, feedcache.Page{Tweets: page.Tweets, NextCursor: page.NextCursor})
	return page.NextCursor != nil, nil
}

func (s *Session) LoadDetail(ctx context.Context, tweetID string) (*dto.FeedTweet, error) {
	t, err := s.client.GetTweet(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	s.cache.SetDetail(*t)
	return t, nil
}

func (s *Session) LoadNotifications(ctx context.Context) error {
	list, err := s.client.Notifications(ctx)
	if err != nil {
		return err
	}
	s.cache.SetNotifications(list)
	return nil
}

// ToggleLike 先在所有视图翻转 likedByMe，再以服务端结果为准；失败时恢复原值
func (s *Session) ToggleLike(ctx context.Context, tweetID string) (bool, error) {
	cur, _ := s.cache.Find(tweetID)
	prev := cur.LikedByMe
	s.cache.ApplyTweetDelta(feedcache.All(), tweetID, feedcache.SetLiked(!prev))

	res, err := s.client.ToggleLike(ctx, tweetID)
	if err != nil {
		s.cache.ApplyTweetDelta(feedcache.All(), tweetID, feedcache.SetLiked(prev))
		return prev, err
	}
	s.cache.ApplyTweetDelta(feedcache.All(), tweetID, feedcache.SetLiked(res.Liked))
	return res.Liked, nil
}

// ToggleRetweet 同 ToggleLike，转推期间署观看者的名字。
// 取消转推会清空署名，即使关注的人也转推过，直到下次刷新
func (s *Session) ToggleRetweet(ctx context.Context, tweetID string) (bool, error) {
	cur, _ := s.cache.Find(tweetID)
	prev := cur.RetweetedByMe
	s.cache.ApplyTweetDelta(feedcache.All(), tweetID, feedcache.SetRetweeted(!prev, s.viewerName))

	res, err := s.client.ToggleRetweet(ctx, tweetID)
	if err != nil {
		s.cache.ApplyTweetDelta(feedcache.All(), tweetID, feedcache.SetRetweeted(prev, s.viewerName))
		return prev, err
	}
	s.cache.ApplyTweetDelta(feedcache.All(), tweetID, feedcache.SetRetweeted(res.Retweeted, s.viewerName))
	return res.Retweeted, nil
}

// CreateComment 服务端分配 id 后再写入缓存
func (s *Session) CreateComment(ctx context.Context, tweetID, content string) (*dto.Comment, error) {
	c, err := s.client.CreateComment(ctx, tweetID, content)
	if err != nil {
		return nil, err
	}
	s.cache.ApplyTweetDelta(feedcache.All(), tweetID, feedcache.AppendComment(*c, s.viewerID))
	return c, nil
}

// CreateTweet 新推文插到首页与自己主页流的最前面
func (s *Session) CreateTweet(ctx context.Context, req dto.CreateTweetRequest) (*dto.FeedTweet, error) {
	t, err := s.client.CreateTweet(ctx, req)
	if err != nil {
		return nil, err
	}
	s.cache.PrependTweet(feedcache.Only(feedcache.Feed(), feedcache.ProfileFeed(s.viewerID)), *t)
	return t, nil
}

func (s *Session) DeleteNotification(ctx context.Context, id string) error {
	if _, err := s.client.DeleteNotification(ctx, id); err != nil {
		return err
	}
	s.cache.RemoveNotification(id)
	return nil
}

// HandleEvent 应用推送事件，返回缓存是否变化
func (s *Session) HandleEvent(ev dto.Event) (bool, error) {
	payload, err := ev.Decode()
	if err != nil {
		return false, err
	}
	if s.viewerID != "" && dto.ActorOf(payload) == s.viewerID {
		return false, nil
	}

	switch p := payload.(type) {
	case *dto.NewTweetEvent:
		return s.cache.PrependTweet(s.newTweetViews(p), asSeenByOther(p.Tweet)) > 0, nil
	case *dto.LikesEvent:
		return s.cache.ApplyTweetDelta(feedcache.All(), p.TweetID, feedcache.LikeCountDelta(delta(p.Liked))) > 0, nil
	case *dto.RetweetsEvent:
		return s.cache.ApplyTweetDelta(feedcache.All(), p.TweetID, feedcache.RetweetCountDelta(delta(p.Retweeted))) > 0, nil
	case *dto.CommentEvent:
		return s.cache.ApplyTweetDelta(feedcache.All(), p.Comment.TweetID, feedcache.AppendComment(p.Comment, s.viewerID)) > 0, nil
	case *dto.NotificationEvent:
		if p.Notification.Notifyee.ID != s.viewerID {
			return false, nil
		}
		return s.cache.AddNotification(p.Notification), nil
	}
	return false, nil
}

func (s *Session) newTweetViews(p *dto.NewTweetEvent) feedcache.SelectorMatcher {
	sels := []feedcache.Selector{feedcache.Feed(), feedcache.ProfileFeed(p.Tweet.User.ID)}
	for _, id := range p.Followers {
		if id == s.viewerID {
			sels = append(sels, feedcache.FollowingFeed())
			break
		}
	}
	return feedcache.Only(sels...)
}

// asSeenByOther 清掉按作者视角计算的标记
func asSeenByOther(t dto.FeedTweet) dto.FeedTweet {
	t = t.Clone()
	t.LikedByMe = false
	t.RetweetedByMe = false
	t.CommentedByMe = false
	t.RetweetCreditorName = nil
	return t
}

func delta(on bool) int {
	if on {
		return 1
	}
	return -1
}

// Listen 订阅推送
func (s *Session) Listen(ctx context.Context) (*Subscription, error) {
	return s.client.Listen(ctx, func(ev dto.Event) {
		if _, err := s.HandleEvent(ev); err != nil {
			logger.Debug("drop push event", zap.String("event", ev.Event), zap.Error(err))
		}
	})
}
