package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	data := []byte(`{
		"id": "123456789",
		"type": 19,
		"author": {"id": "42", "username": "john", "discriminator": "0001"},
		"timestamp": "2021-05-01T10:00:00Z",
		"edited_timestamp": "2021-05-01T10:05:00Z",
		"pinned": true,
		"content": "hello **world**",
		"attachments": [{"id": "1", "url": "https://x/y.png", "filename": "SPOILER_y.png", "size": 17}],
		"mentions": [{"id": "77", "username": "jane", "discriminator": "0"}],
		"message_reference": {"message_id": "111", "channel_id": "222"},
		"referenced_message": {"id": "111", "type": 0, "author": {"id": "77", "username": "jane"}, "timestamp": "2021-05-01T09:00:00Z", "content": "hi"}
	}`)
	m, err := ParseMessage(data)
	require.NoError(t, err)

	assert.Equal(t, Snowflake(123456789), m.Id)
	assert.True(t, m.IsReply())
	assert.True(t, m.IsReplyLike())
	assert.False(t, m.IsSystemNotification())
	assert.True(t, m.IsPinned)
	require.NotNil(t, m.EditedTimestamp)

	require.Len(t, m.Attachments, 1)
	assert.True(t, m.Attachments[0].IsSpoiler())
	assert.True(t, m.Attachments[0].IsImage())

	require.NotNil(t, m.Author.Discriminator)
	assert.Equal(t, "john#0001", m.Author.FullName())

	// Discriminator "0" normalizes to nil under the unified scheme.
	require.Len(t, m.MentionedUsers, 1)
	assert.Nil(t, m.MentionedUsers[0].Discriminator)
	assert.Equal(t, "jane", m.MentionedUsers[0].FullName())

	require.NotNil(t, m.ReferencedMessage)
	assert.Nil(t, m.ReferencedMessage.ReferencedMessage, "reference chain depth is one")

	users := m.GetReferencedUsers()
	assert.Len(t, users, 3) // author, mention, referenced author
}

func TestMessageIsEmpty(t *testing.T) {
	cases := []struct {
		name string
		m    Message
		want bool
	}{
		{"blank", Message{Content: "  \n "}, true},
		{"content", Message{Content: "x"}, false},
		{"attachment", Message{Attachments: []Attachment{{}}}, false},
		{"embed", Message{Embeds: []Embed{{}}}, false},
		{"sticker", Message{Stickers: []Sticker{{}}}, false},
	}
	for _, tc := range cases {
		if got := tc.m.IsEmpty(); got != tc.want {
			t.Fatalf("%s: IsEmpty() = %v; want %v", tc.name, got, tc.want)
		}
	}
}

func TestSystemNotificationRange(t *testing.T) {
	for k := 1; k <= 18; k++ {
		if !MessageKind(k).IsSystemNotification() {
			t.Fatalf("kind %d must be a system notification", k)
		}
	}
	for _, k := range []MessageKind{MessageKindDefault, MessageKindReply, MessageKindChatInputCommand} {
		if k.IsSystemNotification() {
			t.Fatalf("kind %d must not be a system notification", k)
		}
	}
}

func TestNormalizeEmbedsMergesGalleries(t *testing.T) {
	url := "https://twitter.com/u/status/1"
	img := func(u string) EmbedImage { return EmbedImage{URL: u} }
	embeds := []Embed{
		{URL: url, Title: "tweet", Images: []EmbedImage{img("a")}},
		{URL: url, Images: []EmbedImage{img("b")}},
		{URL: url, Images: []EmbedImage{img("c")}},
		{URL: "https://example.com", Title: "other"},
	}

	got := NormalizeEmbeds(embeds)
	require.Len(t, got, 2)
	assert.Len(t, got[0].Images, 3)

	// Idempotency: a second pass changes nothing.
	again := NormalizeEmbeds(got)
	assert.Equal(t, got, again)
}

func TestNormalizeEmbedsLeavesUnrelated(t *testing.T) {
	embeds := []Embed{
		{URL: "https://example.com/a", Images: []EmbedImage{{URL: "a"}}},
		{URL: "https://example.com/a", Images: []EmbedImage{{URL: "b"}}},
	}
	// example.com is not a one-image-per-embed host.
	got := NormalizeEmbeds(embeds)
	assert.Len(t, got, 2)
}

func TestChannelPredicates(t *testing.T) {
	empty := Channel{Id: 100}
	if !empty.IsEmpty() {
		t.Fatal("channel without lastMessageId must be empty")
	}
	c := Channel{Id: 100, LastMessageId: 500}
	if !c.MayHaveMessagesAfter(499) || c.MayHaveMessagesAfter(500) {
		t.Fatal("MayHaveMessagesAfter boundary")
	}
	if !c.MayHaveMessagesBefore(101) || c.MayHaveMessagesBefore(100) {
		t.Fatal("MayHaveMessagesBefore boundary")
	}
}

func TestChannelHierarchicalName(t *testing.T) {
	category := &Channel{Name: "Info", Kind: ChannelKindCategory}
	channel := &Channel{Name: "general", Kind: ChannelKindGuildText, Parent: category}
	thread := Channel{Name: "digression", Kind: ChannelKindThreadPublic, Parent: channel}
	if got := thread.HierarchicalName(); got != "Info / general / digression" {
		t.Fatalf("HierarchicalName() = %q", got)
	}
}

func TestRoleColorNullWhenZero(t *testing.T) {
	r, err := ParseRole([]byte(`{"id":"9","name":"everyone","color":0,"position":0}`))
	require.NoError(t, err)
	assert.Nil(t, r.Color)

	r, err = ParseRole([]byte(`{"id":"10","name":"admin","color":16711680,"position":5}`))
	require.NoError(t, err)
	require.NotNil(t, r.Color)
	assert.Equal(t, 16711680, *r.Color)
}
