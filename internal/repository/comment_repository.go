package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/chirp/internal/model"
)

type CommentRepository interface {
	// Create 写入评论并带回作者信息
	Create(ctx context.Context, c *model.Comment) error
}

type commentRepository struct{ db *gorm.DB }

func NewCommentRepository(db *gorm.DB) CommentRepository { return &commentRepository{db: db} }

func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(c).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", c.UserID).Take(&c.User).Error
}
