package model

import "time"

// Like 点赞，(user_id, tweet_id) 唯一，切换语义不产生重复行
type Like struct {
	UserID    string `gorm:"primaryKey;type:varchar(36)"`
	TweetID   string `gorm:"primaryKey;type:varchar(36);index:idx_like_tweet"`
	CreatedAt time.Time
}

func (Like) TableName() string { return "likes" }

// Retweet 转推，约束同 Like
type Retweet struct {
	UserID    string `gorm:"primaryKey;type:varchar(36)"`
	TweetID   string `gorm:"primaryKey;type:varchar(36);index:idx_retweet_tweet"`
	CreatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}

func (Retweet) TableName() string { return "retweets" }
