package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/pkg/dto"
)

// TweetFilter 限定 feed 的范围；全部为空时即全站 feed
type TweetFilter struct {
	// FollowedBy 非空时只返回该用户关注的人发布或转推的推文
	FollowedBy string
	// ProfileID 非空时只返回该用户发布或转推的推文
	ProfileID string
}

// TweetRow 是带有派生计数的一行推文，计数由关联表实时统计
type TweetRow struct {
	ID            string
	AuthorID      string
	Content       string
	CreatedAt     time.Time
	AuthorName    string
	AuthorImage   string
	LikeCount     int64
	RetweetCount  int64
	CommentCount  int64
	LikedByMe     int64
	RetweetedByMe int64
	CommentedByMe int64
}

type TweetRepository interface {
	Create(ctx context.Context, tweet *model.Tweet) error
	Exists(ctx context.Context, id string) (bool, error)
	AuthorOf(ctx context.Context, id string) (string, error)
	// ListPage 按 (created_at desc, id desc) 返回游标之后的至多 limit 行
	ListPage(ctx context.Context, filter TweetFilter, viewerID string, cursor *dto.Cursor, limit int) ([]TweetRow, error)
	GetRow(ctx context.Context, id, viewerID string) (*TweetRow, error)
	CommentsFor(ctx context.Context, tweetIDs []string) (map[string][]model.Comment, error)
	ImagesFor(ctx context.Context, tweetIDs []string) (map[string][]model.Image, error)
	// CreditRetweetsFor 返回可以作为转推署名的转推：creditors 中任意用户，或 viewer 关注的人
	CreditRetweetsFor(ctx context.Context, tweetIDs []string, viewerID string, creditors ...string) (map[string][]model.Retweet, error)
	WithTx(tx *gorm.DB) TweetRepository
}

type tweetRepository struct {
	db *gorm.DB
}

func NewTweetRepository(db *gorm.DB) TweetRepository { return &tweetRepository{db: db} }

func (r *tweetRepository) WithTx(tx *gorm.DB) TweetRepository { return &tweetRepository{db: tx} }

// Create 写入推文及其附图（同一事务）
func (r *tweetRepository) Create(ctx context.Context, tweet *model.Tweet) error {
	return r.db.WithContext(ctx).Omit("Author").Create(tweet).Error
}

func (r *tweetRepository) Exists(ctx context.Context, id string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.Tweet{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *tweetRepository) AuthorOf(ctx context.Context, id string) (string, error) {
	var t model.Tweet
	err := r.db.WithContext(ctx).Select("id", "author_id").Where("id = ?", id).Take(&t).Error
	if err != nil {
		return "", err
	}
	return t.AuthorID, nil
}

func (r *tweetRepository) baseQuery(ctx context.Context, viewerID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("tweets").
		Select(`tweets.id, tweets.author_id, tweets.content, tweets.created_at,
			users.name AS author_name, users.image AS author_image,
			(SELECT COUNT(*) FROM likes WHERE likes.tweet_id = tweets.id) AS like_count,
			(SELECT COUNT(*) FROM retweets WHERE retweets.tweet_id = tweets.id) AS retweet_count,
			(SELECT COUNT(*) FROM comments WHERE comments.tweet_id = tweets.id) AS comment_count,
			(SELECT COUNT(*) FROM likes WHERE likes.tweet_id = tweets.id AND likes.user_id = ?) AS liked_by_me,
			(SELECT COUNT(*) FROM retweets WHERE retweets.tweet_id = tweets.id AND retweets.user_id = ?) AS retweeted_by_me,
			(SELECT COUNT(*) FROM comments WHERE comments.tweet_id = tweets.id AND comments.user_id = ?) AS commented_by_me`,
			viewerID, viewerID, viewerID).
		Joins("LEFT JOIN users ON users.id = tweets.author_id")
}

func (r *tweetRepository) ListPage(ctx context.Context, filter TweetFilter, viewerID string, cursor *dto.Cursor, limit int) ([]TweetRow, error) {
	q := r.baseQuery(ctx, viewerID)

	if filter.FollowedBy != "" {
		q = q.Where(`(tweets.author_id IN (SELECT followee_id FROM follows WHERE follower_id = ?)
			OR EXISTS (SELECT 1 FROM retweets JOIN follows ON follows.followee_id = retweets.user_id
				WHERE retweets.tweet_id = tweets.id AND follows.follower_id = ?))`,
			filter.FollowedBy, filter.FollowedBy)
	}
	if filter.ProfileID != "" {
		q = q.Where(`(tweets.author_id = ?
			OR EXISTS (SELECT 1 FROM retweets WHERE retweets.tweet_id = tweets.id AND retweets.user_id = ?))`,
			filter.ProfileID, filter.ProfileID)
	}
	if cursor != nil {
		// 复合键 (created_at, id) 严格小于游标，保证同时间戳下分页稳定
		q = q.Where("(tweets.created_at < ? OR (tweets.created_at = ? AND tweets.id < ?))",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []TweetRow
	err := q.Order("tweets.created_at DESC").Order("tweets.id DESC").Limit(limit).Scan(&rows).Error
	return rows, err
}

func (r *tweetRepository) GetRow(ctx context.Context, id, viewerID string) (*TweetRow, error) {
	var rows []TweetRow
	if err := r.baseQuery(ctx, viewerID).Where("tweets.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *tweetRepository) CommentsFor(ctx context.Context, tweetIDs []string) (map[string][]model.Comment, error) {
	out := make(map[string][]model.Comment, len(tweetIDs))
	if len(tweetIDs) == 0 {
		return out, nil
	}
	var comments []model.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("tweet_id IN ?", tweetIDs).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		out[c.TweetID] = append(out[c.TweetID], c)
	}
	return out, nil
}

func (r *tweetRepository) ImagesFor(ctx context.Context, tweetIDs []string) (map[string][]model.Image, error) {
	out := make(map[string][]model.Image, len(tweetIDs))
	if len(tweetIDs) == 0 {
		return out, nil
	}
	var images []model.Image
	err := r.db.WithContext(ctx).
		Where("tweet_id IN ?", tweetIDs).
		Order("created_at ASC").Order("id ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		out[img.TweetID] = append(out[img.TweetID], img)
	}
	return out, nil
}

func (r *tweetRepository) CreditRetweetsFor(ctx context.Context, tweetIDs []string, viewerID string, creditors ...string) (map[string][]model.Retweet, error) {
	out := make(map[string][]model.Retweet, len(tweetIDs))
	ids := make([]string, 0, len(creditors)+1)
	for _, c := range append(creditors, viewerID) {
		if c != "" {
			ids = append(ids, c)
		}
	}
	if len(tweetIDs) == 0 || len(ids) == 0 {
		return out, nil
	}

	q := r.db.WithContext(ctx).Preload("User").Where("tweet_id IN ?", tweetIDs)
	if viewerID != "" {
		q = q.Where("(user_id IN ? OR user_id IN (SELECT followee_id FROM follows WHERE follower_id = ?))", ids, viewerID)
	} else {
		q = q.Where("user_id IN ?", ids)
	}

	var retweets []model.Retweet
	if err := q.Order("created_at ASC").Find(&retweets).Error; err != nil {
		return nil, err
	}
	for _, rt := range retweets {
		out[rt.TweetID] = append(out[rt.TweetID], rt)
	}
	return out, nil
}

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
