package feedcache

import "github.com/d60-Lab/chirp/pkg/dto"

// Patch 对单条缓存推文的纯函数更新，入参是私有副本
type Patch func(dto.FeedTweet) dto.FeedTweet

func addClamped(n, delta int) int {
	n += delta
	if n < 0 {
		return 0
	}
	return n
}

// SetLiked 设置 likedByMe，只有标记翻转时才改 likeCount，重复应用结果不变
func SetLiked(liked bool) Patch {
	return func(t dto.FeedTweet) dto.FeedTweet {
		if t.LikedByMe == liked {
			return t
		}
		t.LikedByMe = liked
		if liked {
			t.LikeCount = addClamped(t.LikeCount, 1)
		} else {
			t.LikeCount = addClamped(t.LikeCount, -1)
		}
		return t
	}
}

// SetRetweeted 转推版的 SetLiked：转推时署名 creditorName，取消时清空署名
func SetRetweeted(retweeted bool, creditorName string) Patch {
	return func(t dto.FeedTweet) dto.FeedTweet {
		if t.RetweetedByMe == retweeted {
			return t
		}
		t.RetweetedByMe = retweeted
		if retweeted {
			t.RetweetCount = addClamped(t.RetweetCount, 1)
			name := creditorName
			t.RetweetCreditorName = &name
		} else {
			t.RetweetCount = addClamped(t.RetweetCount, -1)
			t.RetweetCreditorName = nil
		}
		return t
	}
}

// LikeCountDelta 他人点赞引起的计数变化
func LikeCountDelta(delta int) Patch {
	return func(t dto.FeedTweet) dto.FeedTweet {
		t.LikeCount = addClamped(t.LikeCount, delta)
		return t
	}
}

// RetweetCountDelta 他人转推引起的计数变化
func RetweetCountDelta(delta int) Patch {
	return func(t dto.FeedTweet) dto.FeedTweet {
		t.RetweetCount = addClamped(t.RetweetCount, delta)
		return t
	}
}

// AppendComment 追加评论；同一 id 只加一次
func AppendComment(comment dto.Comment, viewerID string) Patch {
	return func(t dto.FeedTweet) dto.FeedTweet {
		for _, c := range t.Comments {
			if c.ID == comment.ID {
				return t
			}
		}
		t.Comments = append(t.Comments, comment)
		t.CommentCount++
		if viewerID != "" && comment.User.ID == viewerID {
			t.CommentedByMe = true
		}
		return t
	}
}
