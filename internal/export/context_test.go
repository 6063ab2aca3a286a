package export

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/tbourn/go-chat-export/internal/discord"
)

func newOfflineContext(t *testing.T, req Request) *Context {
	t.Helper()
	guild := discord.Guild{Id: 50, Name: "Server"}
	channel := discord.Channel{Id: 200, Name: "general", GuildId: 50}
	return NewContext(nil, req, guild, channel, "out/export.html", zerolog.Nop())
}

func intp(v int) *int { return &v }

func TestUserRolesSortedByPositionDescending(t *testing.T) {
	c := newOfflineContext(t, Request{})
	c.roles[1] = discord.Role{Id: 1, Name: "low", Position: 1}
	c.roles[2] = discord.Role{Id: 2, Name: "high", Position: 9, Color: intp(0xFF0000)}
	c.roles[3] = discord.Role{Id: 3, Name: "mid", Position: 5}
	c.members.claim(9)
	c.members.store(9, &discord.Member{
		User:    discord.User{Id: 9, Name: "alice", DisplayName: "alice"},
		RoleIds: []discord.Snowflake{1, 3, 2},
	})

	roles := c.UserRoles(9)
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"high", "mid", "low"}, names)
}

func TestUserColorFirstNonNull(t *testing.T) {
	c := newOfflineContext(t, Request{})
	c.roles[1] = discord.Role{Id: 1, Name: "low", Position: 1, Color: intp(0x00FF00)}
	c.roles[2] = discord.Role{Id: 2, Name: "high", Position: 9}
	c.members.claim(9)
	c.members.store(9, &discord.Member{
		User:    discord.User{Id: 9, Name: "alice"},
		RoleIds: []discord.Snowflake{1, 2},
	})

	// The highest role has no colour, so the next one wins.
	color := c.UserColor(9)
	if assert.NotNil(t, color) {
		assert.Equal(t, 0x00FF00, *color)
	}

	assert.Nil(t, c.UserColor(123), "unknown user has no colour")
}

func TestMemberDisplayNameFallsBackToUser(t *testing.T) {
	c := newOfflineContext(t, Request{})
	u := discord.User{Id: 9, Name: "alice", DisplayName: "Alice Global"}
	assert.Equal(t, "Alice Global", c.MemberDisplayName(u))

	c.members.claim(9)
	c.members.store(9, &discord.Member{User: u, Nick: "Ali"})
	assert.Equal(t, "Ali", c.MemberDisplayName(u))
}

func TestLookupFallbacksForDeletedEntities(t *testing.T) {
	c := newOfflineContext(t, Request{})
	assert.Equal(t, "deleted-channel", c.ChannelName(404))
	assert.Equal(t, "deleted-role", c.RoleName(404))
}

func TestFormatDateCodes(t *testing.T) {
	c := newOfflineContext(t, Request{IsUtcNormalizationEnabled: true})
	at := time.Date(2021, 6, 21, 22, 20, 42, 0, time.UTC)

	assert.Equal(t, "06/21/2021 10:20 PM", c.FormatDate(at, "f"))
	assert.Equal(t, "06/21/2021", c.FormatDate(at, "d"))
	assert.Equal(t, "10:20 PM", c.FormatDate(at, "t"))
	assert.Equal(t, "Monday, June 21, 2021 10:20 PM", c.FormatDate(at, "F"))
	assert.Contains(t, c.FormatDate(at, "R"), "ago")
}

func TestFormatDateLocaleFlipsDayFirst(t *testing.T) {
	c := newOfflineContext(t, Request{Locale: "en-GB", IsUtcNormalizationEnabled: true})
	at := time.Date(2021, 6, 21, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "21/06/2021", c.FormatDate(at, "d"))
}

func TestRelativeTime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "a few seconds ago"},
		{90 * time.Second, "a minute ago"},
		{10 * time.Minute, "10 minutes ago"},
		{90 * time.Minute, "an hour ago"},
		{5 * time.Hour, "5 hours ago"},
		{30 * time.Hour, "a day ago"},
		{72 * time.Hour, "3 days ago"},
		{40 * 24 * time.Hour, "a month ago"},
		{100 * 24 * time.Hour, "3 months ago"},
		{800 * 24 * time.Hour, "2 years ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relativeTime(tt.d), tt.d.String())
	}
}

func TestEncodePathSegments(t *testing.T) {
	assert.Equal(t, "My%20Server_Files/a%20b.png", encodePathSegments("My Server_Files/a b.png"))
}
