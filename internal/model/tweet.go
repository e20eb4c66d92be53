package model

import "time"

// Tweet 推文主体。点赞/转推/评论数不落库，读取时按关联行实时计数。
type Tweet struct {
	ID        string    `gorm:"primaryKey;type:varchar(36);index:idx_tweet_created_id,priority:2"`
	AuthorID  string    `gorm:"type:varchar(36);index:idx_tweet_author;not null"`
	Content   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index:idx_tweet_created_id,priority:1"`

	Author User    `gorm:"foreignKey:AuthorID"`
	Images []Image `gorm:"foreignKey:TweetID"`
}

func (Tweet) TableName() string { return "tweets" }

// Image 推文附图（对象存储中的 URL）
type Image struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TweetID   string    `json:"tweetId" gorm:"type:varchar(36);index:idx_image_tweet;not null"`
	URL       string    `json:"url" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Image) TableName() string { return "images" }
