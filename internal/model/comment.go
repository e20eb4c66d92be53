package model

import "time"

type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	TweetID   string    `gorm:"type:varchar(36);index:idx_comment_tweet;not null"`
	UserID    string    `gorm:"type:varchar(36);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`

	User User `gorm:"foreignKey:UserID"`
}

func (Comment) TableName() string { return "comments" }
