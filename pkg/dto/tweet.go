// Package dto HTTP API、推送通道与 Go 客户端共用的 JSON 结构
package dto

import "time"

// TweetUser 推文与评论中内嵌的作者摘要
type TweetUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type Comment struct {
	ID        string    `json:"id"`
	TweetID   string    `json:"tweetId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	User      TweetUser `json:"user"`
}

type Image struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedTweet 某个观看者视角下的推文。计数在读取时由关联行统计，*ByMe 标记相对观看者
type FeedTweet struct {
	ID                  string    `json:"id"`
	Content             string    `json:"content"`
	CreatedAt           time.Time `json:"createdAt"`
	LikeCount           int       `json:"likeCount"`
	RetweetCount        int       `json:"retweetCount"`
	CommentCount        int       `json:"commentCount"`
	User                TweetUser `json:"user"`
	LikedByMe           bool      `json:"likedByMe"`
	RetweetedByMe       bool      `json:"retweetedByMe"`
	CommentedByMe       bool      `json:"commentedByMe"`
	RetweetCreditorName *string   `json:"retweetCreditorName"`
	Comments            []Comment `json:"comments"`
	Images              []Image   `json:"images"`
}

// Clone 深拷贝，缓存视图之间不共享切片
func (t FeedTweet) Clone() FeedTweet {
	out := t
	if t.RetweetCreditorName != nil {
		name := *t.RetweetCreditorName
		out.RetweetCreditorName = &name
	}
	if t.Comments != nil {
		out.Comments = append(make([]Comment, 0, len(t.Comments)), t.Comments...)
	}
	if t.Images != nil {
		out.Images = append(make([]Image, 0, len(t.Images)), t.Images...)
	}
	return out
}

// Cursor 指向一页的最后一条；下一页按 (createdAt desc, id desc) 从其之后开始（不含）
type Cursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

type FeedPage struct {
	Tweets     []FeedTweet `json:"tweets"`
	NextCursor *Cursor     `json:"nextCursor"`
}

type CreateTweetRequest struct {
	Content   string   `json:"content"`
	ImageURLs []string `json:"imageUrls" binding:"omitempty,max=4,dive,url"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type LikeResult struct {
	Liked bool `json:"liked"`
}

type RetweetResult struct {
	Retweeted bool `json:"retweeted"`
}
