// Package feedcache 客户端视图缓存：首页、关注流、个人主页流与推文详情。
// 对缓存推文的所有修改都走 ApplyTweetDelta，本地操作与推送事件用同一套补丁。
package feedcache

import (
	"sync"

	"github.com/d60-Lab/chirp/pkg/dto"
)

// Page 无限列表中已加载的一页
type Page struct {
	Tweets     []dto.FeedTweet
	NextCursor *dto.Cursor
}

func (p Page) clone() Page {
	out := Page{Tweets: make([]dto.FeedTweet, len(p.Tweets))}
	for i, t := range p.Tweets {
		out.Tweets[i] = t.Clone()
	}
	if p.NextCursor != nil {
		cur := *p.NextCursor
		out.NextCursor = &cur
	}
	return out
}

// Cache 可并发使用；推送事件在独立协程中到达
type Cache struct {
	mu            sync.RWMutex
	infinite      map[Selector][]Page
	details       map[Selector]dto.FeedTweet
	notifications []dto.Notification
}

func New() *Cache {
	return &Cache{
		infinite: make(map[Selector][]Page),
		details:  make(map[Selector]dto.FeedTweet),
	}
}

// ResetView 用第一页替换整个列表视图
func (c *Cache) ResetView(sel Selector, first Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.infinite[sel] = []Page{first.clone()}
}

// AppendPage 追加下一页
func (c *Cache) AppendPage(sel Selector, page Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.infinite[sel] = append(c.infinite[sel], page.clone())
}

// Pages 返回视图已加载页的副本
func (c *Cache) Pages(sel Selector) []Page {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pages := c.infinite[sel]
	out := make([]Page, len(pages))
	for i, p := range pages {
		out[i] = p.clone()
	}
	return out
}

// Tweets 按展示顺序返回视图内全部推文
func (c *Cache) Tweets(sel Selector) []dto.FeedTweet {
	var out []dto.FeedTweet
	for _, p := range c.Pages(sel) {
		out = append(out, p.Tweets...)
	}
	return out
}

// NextCursor 返回最后一页的游标；视图从未加载时 ok 为 false
func (c *Cache) NextCursor(sel Selector) (cursor *dto.Cursor, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pages := c.infinite[sel]
	if len(pages) == 0 {
		return nil, false
	}
	if cur := pages[len(pages)-1].NextCursor; cur != nil {
		cp := *cur
		return &cp, true
	}
	return nil, true
}

func (c *Cache) SetDetail(t dto.FeedTweet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.details[Detail(t.ID)] = t.Clone()
}

func (c *Cache) Detail(tweetID string) (dto.FeedTweet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.details[Detail(tweetID)]
	if !ok {
		return dto.FeedTweet{}, false
	}
	return t.Clone(), true
}

// Find 查找推文的任一缓存副本，优先详情视图
func (c *Cache) Find(tweetID string) (dto.FeedTweet, bool) {
	if t, ok := c.Detail(tweetID); ok {
		return t, true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, pages := range c.infinite {
		for _, p := range pages {
			for _, t := range p.Tweets {
				if t.ID == tweetID {
					return t.Clone(), true
				}
			}
		}
	}
	return dto.FeedTweet{}, false
}

// Selectors 列出当前持有的视图
func (c *Cache) Selectors() []Selector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Selector, 0, len(c.infinite)+len(c.details))
	for s := range c.infinite {
		out = append(out, s)
	}
	for s := range c.details {
		out = append(out, s)
	}
	return out
}

// ApplyTweetDelta 对 match 命中的视图中 tweetID 的每个副本应用 patch，返回修改的副本数。
// 不含该推文的视图不受影响。
func (c *Cache) ApplyTweetDelta(match SelectorMatcher, tweetID string, patch Patch) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for sel, pages := range c.infinite {
		if !match(sel) {
			continue
		}
		for pi := range pages {
			for ti := range pages[pi].Tweets {
				if pages[pi].Tweets[ti].ID == tweetID {
					pages[pi].Tweets[ti] = patch(pages[pi].Tweets[ti].Clone())
					n++
				}
			}
		}
	}
	key := Detail(tweetID)
	if t, ok := c.details[key]; ok && match(key) {
		c.details[key] = patch(t.Clone())
		n++
	}
	return n
}

// PrependTweet 把推文插到命中视图第一页的最前面；只处理已加载且尚未包含该推文的列表视图
func (c *Cache) PrependTweet(match SelectorMatcher, tweet dto.FeedTweet) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for sel, pages := range c.infinite {
		if !sel.infinite() || !match(sel) || len(pages) == 0 || containsTweet(pages, tweet.ID) {
			continue
		}
		head := make([]dto.FeedTweet, 0, len(pages[0].Tweets)+1)
		head = append(head, tweet.Clone())
		pages[0].Tweets = append(head, pages[0].Tweets...)
		n++
	}
	return n
}

func containsTweet(pages []Page, id string) bool {
	for _, p := range pages {
		for _, t := range p.Tweets {
			if t.ID == id {
				return true
			}
		}
	}
	return false
}

// SetNotifications 替换缓存的通知列表
func (c *Cache) SetNotifications(list []dto.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = append([]dto.Notification(nil), list...)
}

// AddNotification 插到列表头部；id 已存在时忽略
func (c *Cache) AddNotification(n dto.Notification) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cur := range c.notifications {
		if cur.ID == n.ID {
			return false
		}
	}
	c.notifications = append([]dto.Notification{n}, c.notifications...)
	return true
}

func (c *Cache) RemoveNotification(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cur := range c.notifications {
		if cur.ID == id {
			c.notifications = append(c.notifications[:i:i], c.notifications[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cache) Notifications() []dto.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]dto.Notification(nil), c.notifications...)
}
