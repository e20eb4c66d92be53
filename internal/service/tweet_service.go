package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/internal/repository"
	"github.com/d60-Lab/chirp/pkg/dto"
	"github.com/d60-Lab/chirp/pkg/logger"
)

// TweetService 推文读写；计数全部在读取时由关联行统计
type TweetService interface {
	Create(ctx context.Context, authorID string, req dto.CreateTweetRequest) (*dto.FeedTweet, error)
	// InfiniteFeed viewerID 可为空；onlyFollowing 仅在有 viewer 时生效
	InfiniteFeed(ctx context.Context, viewerID string, onlyFollowing bool, limit int, cursor *dto.Cursor) (*dto.FeedPage, error)
	InfiniteProfileFeed(ctx context.Context, viewerID, profileID string, limit int, cursor *dto.Cursor) (*dto.FeedPage, error)
	GetByID(ctx context.Context, viewerID, id string) (*dto.FeedTweet, error)
	ToggleLike(ctx context.Context, userID, tweetID string) (*dto.LikeResult, error)
	ToggleRetweet(ctx context.Context, userID, tweetID string) (*dto.RetweetResult, error)
	CreateComment(ctx context.Context, userID, tweetID, content string) (*dto.Comment, error)
}

type tweetService struct {
	db        *gorm.DB
	tweets    repository.TweetRepository
	likes     repository.ToggleRepository
	retweets  repository.ToggleRepository
	comments  repository.CommentRepository
	follows   repository.FollowRepository
	publisher EventPublisher
}

func NewTweetService(db *gorm.DB, publisher EventPublisher) TweetService {
	return &tweetService{
		db:        db,
		tweets:    repository.NewTweetRepository(db),
		likes:     repository.NewLikeRepository(db),
		retweets:  repository.NewRetweetRepository(db),
		comments:  repository.NewCommentRepository(db),
		follows:   repository.NewFollowRepository(db),
		publisher: publisherOrNop(publisher),
	}
}

func (s *tweetService) Create(ctx context.Context, authorID string, req dto.CreateTweetRequest) (*dto.FeedTweet, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" && len(req.ImageURLs) == 0 {
		return nil, ErrEmptyContent
	}

	now := model.Now()
	tweet := &model.Tweet{ID: uuid.New().String(), AuthorID: authorID, Content: content, CreatedAt: now}
	for _, u := range req.ImageURLs {
		tweet.Images = append(tweet.Images, model.Image{ID: uuid.New().String(), URL: u, CreatedAt: now})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.tweets.WithTx(tx).Create(ctx, tweet)
	})
	if err != nil {
		return nil, fmt.Errorf("create tweet: %w", err)
	}

	view, err := s.GetByID(ctx, authorID, tweet.ID)
	if err != nil {
		return nil, err
	}

	followers, err := s.follows.FollowerIDs(ctx, authorID)
	if err != nil {
		// 推送是尽力而为，不影响发布结果
		logger.Warn("load followers for tweet.new failed", zap.String("author_id", authorID), zap.Error(err))
		followers = []string{}
	}
	s.publisher.Publish(dto.ChannelTweet, dto.EventTweetNew, dto.NewTweetEvent{Tweet: *view, Followers: followers})
	return view, nil
}

func (s *tweetService) InfiniteFeed(ctx context.Context, viewerID string, onlyFollowing bool, limit int, cursor *dto.Cursor) (*dto.FeedPage, error) {
	var filter repository.TweetFilter
	if onlyFollowing && viewerID != "" {
		filter.FollowedBy = viewerID
	}
	return s.page(ctx, filter, viewerID, limit, cursor)
}

func (s *tweetService) InfiniteProfileFeed(ctx context.Context, viewerID, profileID string, limit int, cursor *dto.Cursor) (*dto.FeedPage, error) {
	return s.page(ctx, repository.TweetFilter{ProfileID: profileID}, viewerID, limit, cursor, profileID)
}

// page 多取一行判断是否还有下一页；游标指向本页最后一条
func (s *tweetService) page(ctx context.Context, filter repository.TweetFilter, viewerID string, limit int, cursor *dto.Cursor, creditors ...string) (*dto.FeedPage, error) {
	limit = clampLimit(limit)
	rows, err := s.tweets.ListPage(ctx, filter, viewerID, cursor, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list tweets: %w", err)
	}

	page := &dto.FeedPage{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		page.NextCursor = &dto.Cursor{ID: last.ID, CreatedAt: last.CreatedAt}
	}

	page.Tweets, err = s.hydrate(ctx, rows, viewerID, creditors...)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *tweetService) GetByID(ctx context.Context, viewerID, id string) (*dto.FeedTweet, error) {
	row, err := s.tweets.GetRow(ctx, id, viewerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrTweetNotFound
		}
		return nil, fmt.Errorf("get tweet %s: %w", id, err)
	}
	views, err := s.hydrate(ctx, []repository.TweetRow{*row}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *tweetService) hydrate(ctx context.Context, rows []repository.TweetRow, viewerID string, creditors ...string) ([]dto.FeedTweet, error) {
	out := make([]dto.FeedTweet, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	comments, err := s.tweets.CommentsFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	images, err := s.tweets.ImagesFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load images: %w", err)
	}
	credits, err := s.tweets.CreditRetweetsFor(ctx, ids, viewerID, creditors...)
	if err != nil {
		return nil, fmt.Errorf("load retweets: %w", err)
	}

	for _, r := range rows {
		t := dto.FeedTweet{
			ID:            r.ID,
			Content:       r.Content,
			CreatedAt:     r.CreatedAt,
			LikeCount:     int(r.LikeCount),
			RetweetCount:  int(r.RetweetCount),
			CommentCount:  int(r.CommentCount),
			User:          dto.TweetUser{ID: r.AuthorID, Name: r.AuthorName, Image: r.AuthorImage},
			LikedByMe:     r.LikedByMe > 0,
			RetweetedByMe: r.RetweetedByMe > 0,
			CommentedByMe: r.CommentedByMe > 0,
			Comments:      make([]dto.Comment, 0, len(comments[r.ID])),
			Images:        make([]dto.Image, 0, len(images[r.ID])),
		}
		for _, c := range comments[r.ID] {
			t.Comments = append(t.Comments, commentView(c))
		}
		for _, img := range images[r.ID] {
			t.Images = append(t.Images, dto.Image{ID: img.ID, URL: img.URL, CreatedAt: img.CreatedAt})
		}
		t.RetweetCreditorName = creditorName(credits[r.ID], viewerID, t.RetweetedByMe)
		out = append(out, t)
	}
	return out, nil
}

// creditorName 自己转推过则署自己的名字，否则取最早的一条可见转推
func creditorName(retweets []model.Retweet, viewerID string, retweetedByMe bool) *string {
	if retweetedByMe {
		for _, rt := range retweets {
			if rt.UserID == viewerID {
				name := rt.User.Name
				return &name
			}
		}
	}
	for _, rt := range retweets {
		if rt.UserID != viewerID {
			name := rt.User.Name
			return &name
		}
	}
	return nil
}

func commentView(c model.Comment) dto.Comment {
	return dto.Comment{
		ID:        c.ID,
		TweetID:   c.TweetID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		User:      dto.TweetUser{ID: c.User.ID, Name: c.User.Name, Image: c.User.Image},
	}
}

func (s *tweetService) ensureTweet(ctx context.Context, id string) error {
	ok, err := s.tweets.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check tweet %s: %w", id, err)
	}
	if !ok {
		return ErrTweetNotFound
	}
	return nil
}

func (s *tweetService) ToggleLike(ctx context.Context, userID, tweetID string) (*dto.LikeResult, error) {
	if err := s.ensureTweet(ctx, tweetID); err != nil {
		return nil, err
	}
	liked, err := s.likes.Toggle(ctx, userID, tweetID)
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}
	s.publisher.Publish(dto.ChannelTweet, dto.EventTweetLikes, dto.LikesEvent{TweetID: tweetID, UserID: userID, Liked: liked})
	return &dto.LikeResult{Liked: liked}, nil
}

func (s *tweetService) ToggleRetweet(ctx context.Context, userID, tweetID string) (*dto.RetweetResult, error) {
	if err := s.ensureTweet(ctx, tweetID); err != nil {
		return nil, err
	}
	retweeted, err := s.retweets.Toggle(ctx, userID, tweetID)
	if err != nil {
		return nil, fmt.Errorf("toggle retweet: %w", err)
	}
	s.publisher.Publish(dto.ChannelTweet, dto.EventTweetRetweets, dto.RetweetsEvent{TweetID: tweetID, UserID: userID, Retweeted: retweeted})
	return &dto.RetweetResult{Retweeted: retweeted}, nil
}

func (s *tweetService) CreateComment(ctx context.Context, userID, tweetID, content string) (*dto.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if err := s.ensureTweet(ctx, tweetID); err != nil {
		return nil, err
	}
	c := &model.Comment{ID: uuid.New().String(), TweetID: tweetID, UserID: userID, Content: content, CreatedAt: model.Now()}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	view := commentView(*c)
	s.publisher.Publish(dto.ChannelTweet, dto.EventTweetComments, dto.CommentEvent{Comment: view})
	return &view, nil
}
