package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_DatesTravelAsISO8601(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 30, 0, 123000000, time.UTC)
	ev, err := NewEvent(ChannelTweet, EventTweetComments, CommentEvent{Comment: Comment{
		ID: "c1", TweetID: "t1", Content: "hi", CreatedAt: created, User: TweetUser{ID: "u1"},
	}})
	require.NoError(t, err)
	assert.Contains(t, string(ev.Data), `"createdAt":"2024-03-01T12:30:00.123Z"`)

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	var back Event
	require.NoError(t, json.Unmarshal(raw, &back))

	payload, err := back.Decode()
	require.NoError(t, err)
	c, ok := payload.(*CommentEvent)
	require.True(t, ok)
	assert.True(t, created.Equal(c.Comment.CreatedAt))
	assert.Equal(t, "u1", ActorOf(payload))
}

func TestEvent_DecodeUnknown(t *testing.T) {
	_, err := Event{Channel: ChannelTweet, Event: "tweet.deleted", Data: []byte(`{}`)}.Decode()
	assert.Error(t, err)
}

func TestFeedTweet_CloneIsDeep(t *testing.T) {
	name := "ada"
	orig := FeedTweet{ID: "t1", RetweetCreditorName: &name, Comments: []Comment{{ID: "c1"}}}
	cp := orig.Clone()
	cp.Comments[0].ID = "changed"
	*cp.RetweetCreditorName = "bob"

	assert.Equal(t, "c1", orig.Comments[0].ID)
	assert.Equal(t, "ada", *orig.RetweetCreditorName)
}
