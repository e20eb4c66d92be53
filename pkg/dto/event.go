package dto

import (
	"encoding/json"
	"fmt"
)

// 推送频道
const (
	ChannelTweet        = "channel.tweet"
	ChannelNotification = "channel.notification"
)

// 推送事件名
const (
	EventTweetNew        = "tweet.new"
	EventTweetLikes      = "tweet.update.likes"
	EventTweetRetweets   = "tweet.update.retweets"
	EventTweetComments   = "tweet.update.comments"
	EventNotificationNew = "notification.new"
)

// Event 推送信封。Data 中的时间是 RFC 3339 字符串，解码后还原为 time.Time
type Event struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
}

type NewTweetEvent struct {
	Tweet     FeedTweet `json:"tweet"`
	Followers []string  `json:"followers"`
}

type LikesEvent struct {
	TweetID string `json:"tweetId"`
	UserID  string `json:"userId"`
	Liked   bool   `json:"liked"`
}

type RetweetsEvent struct {
	TweetID   string `json:"tweetId"`
	UserID    string `json:"userId"`
	Retweeted bool   `json:"retweeted"`
}

type CommentEvent struct {
	Comment Comment `json:"comment"`
}

type NotificationEvent struct {
	Notification Notification `json:"notification"`
}

// NewEvent 把 payload 封装成信封
func NewEvent(channel, name string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s: %w", name, err)
	}
	return Event{Channel: channel, Event: name, Data: data}, nil
}

// Decode 按事件名解码为对应类型
func (e Event) Decode() (interface{}, error) {
	var v interface{}
	switch e.Event {
	case EventTweetNew:
		v = &NewTweetEvent{}
	case EventTweetLikes:
		v = &LikesEvent{}
	case EventTweetRetweets:
		v = &RetweetsEvent{}
	case EventTweetComments:
		v = &CommentEvent{}
	case EventNotificationNew:
		v = &NotificationEvent{}
	default:
		return nil, fmt.Errorf("unknown event %q", e.Event)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", e.Event, err)
	}
	return v, nil
}

// ActorOf 返回触发事件的用户；payload 未携带时为空
func ActorOf(payload interface{}) string {
	switch p := payload.(type) {
	case *NewTweetEvent:
		return p.Tweet.User.ID
	case *LikesEvent:
		return p.UserID
	case *RetweetsEvent:
		return p.UserID
	case *CommentEvent:
		return p.Comment.User.ID
	case *NotificationEvent:
		return p.Notification.Notifyer.ID
	}
	return ""
}
