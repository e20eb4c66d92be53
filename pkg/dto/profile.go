package dto

type Profile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Image          string `json:"image"`
	FollowersCount int    `json:"followersCount"`
	FollowsCount   int    `json:"followsCount"`
	TweetsCount    int    `json:"tweetsCount"`
	IsFollowing    bool   `json:"isFollowing"`
}

type MiniProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
	Email string `json:"email"`
}

type ProfileCursor struct {
	ID string `json:"id"`
}

type ProfilePage struct {
	Profiles   []Profile      `json:"profiles"`
	NextCursor *ProfileCursor `json:"nextCursor"`
}

type FollowResult struct {
	AddedFollow bool `json:"addedFollow"`
}
