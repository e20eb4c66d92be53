package feedcache

// Kind 视图类别
type Kind int

const (
	KindFeed Kind = iota + 1
	KindFollowingFeed
	KindProfileFeed
	KindDetail
)

func (k Kind) String() string {
	switch k {
	case KindFeed:
		return "feed"
	case KindFollowingFeed:
		return "following"
	case KindProfileFeed:
		return "profile"
	case KindDetail:
		return "detail"
	}
	return "unknown"
}

// Selector 标识一个缓存视图：个人主页流带 UserID，详情带 TweetID
type Selector struct {
	Kind    Kind
	UserID  string
	TweetID string
}

func Feed() Selector { return Selector{Kind: KindFeed} }

func FollowingFeed() Selector { return Selector{Kind: KindFollowingFeed} }

func ProfileFeed(userID string) Selector { return Selector{Kind: KindProfileFeed, UserID: userID} }

func Detail(tweetID string) Selector { return Selector{Kind: KindDetail, TweetID: tweetID} }

func (s Selector) infinite() bool { return s.Kind != KindDetail }

// SelectorMatcher 决定一次更新作用于哪些视图
type SelectorMatcher func(Selector) bool

// All 匹配全部视图
func All() SelectorMatcher { return func(Selector) bool { return true } }

// Only 只匹配给定的视图
func Only(sels ...Selector) SelectorMatcher {
	return func(s Selector) bool {
		for _, want := range sels {
			if s == want {
				return true
			}
		}
		return false
	}
}

// OfKind 匹配给定类别的全部视图
func OfKind(kinds ...Kind) SelectorMatcher {
	return func(s Selector) bool {
		for _, k := range kinds {
			if s.Kind == k {
				return true
			}
		}
		return false
	}
}
