package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/chirp/internal/model"
)

// ToggleRepository 切换 (user, tweet) 成员关系；唯一约束是唯一的并发保护
type ToggleRepository interface {
	// Toggle 已存在则删除并返回 false，否则插入并返回 true
	Toggle(ctx context.Context, userID, tweetID string) (bool, error)
	Exists(ctx context.Context, userID, tweetID string) (bool, error)
}

type pairRepository struct {
	db  *gorm.DB
	new func(userID, tweetID string) interface{}
}

// NewLikeRepository 点赞
func NewLikeRepository(db *gorm.DB) ToggleRepository {
	return &pairRepository{db: db, new: func(userID, tweetID string) interface{} {
		return &model.Like{UserID: userID, TweetID: tweetID}
	}}
}

// NewRetweetRepository 转推
func NewRetweetRepository(db *gorm.DB) ToggleRepository {
	return &pairRepository{db: db, new: func(userID, tweetID string) interface{} {
		return &model.Retweet{UserID: userID, TweetID: tweetID}
	}}
}

func (r *pairRepository) Toggle(ctx context.Context, userID, tweetID string) (bool, error) {
	// 先删：删到了说明原来存在，本次为取消
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND tweet_id = ?", userID, tweetID).
		Delete(r.new("", ""))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	// 幂等：并发重复插入由唯一键吸收
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(r.new(userID, tweetID)).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *pairRepository) Exists(ctx context.Context, userID, tweetID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(r.new("", "")).
		Where("user_id = ? AND tweet_id = ?", userID, tweetID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}
