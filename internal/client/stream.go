package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"github.com/tbourn/go-chat-export/internal/discord"
)

// pageSize is the maximum item count per paginated request.
const pageSize = 100

// Stream is a lazy, single-pass, non-restartable sequence of entities
// pulled page by page. Cancellation is observed between pages through the
// context handed to Next.
type Stream[T any] struct {
	buf   []T
	done  bool
	fetch func(ctx context.Context) ([]T, bool, error)
}

// Next returns the next item. ok is false once the stream is exhausted.
func (s *Stream[T]) Next(ctx context.Context) (item T, ok bool, err error) {
	for len(s.buf) == 0 {
		if s.done {
			return item, false, nil
		}
		if err := ctx.Err(); err != nil {
			return item, false, err
		}
		page, more, err := s.fetch(ctx)
		if err != nil {
			return item, false, err
		}
		s.buf = page
		s.done = !more
	}
	item = s.buf[0]
	s.buf = s.buf[1:]
	return item, true, nil
}

// Drain consumes the remainder of the stream into a slice.
func (s *Stream[T]) Drain(ctx context.Context) ([]T, error) {
	var out []T
	for {
		item, ok, err := s.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, item)
	}
}

// GetUserGuilds streams every guild visible to the current token, in
// ascending id order.
func (c *Client) GetUserGuilds(ctx context.Context) *Stream[discord.Guild] {
	cursor := discord.Snowflake(0)
	return &Stream[discord.Guild]{fetch: func(ctx context.Context) ([]discord.Guild, bool, error) {
		q := url.Values{"limit": {"100"}, "after": {cursor.String()}}
		body, err := c.get(ctx, "/users/@me/guilds", q)
		if err != nil {
			return nil, false, err
		}
		var raws []json.RawMessage
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, false, err
		}
		guilds := make([]discord.Guild, 0, len(raws))
		for _, r := range raws {
			g, err := discord.ParseGuild(r)
			if err != nil {
				return nil, false, err
			}
			guilds = append(guilds, g)
			if g.Id > cursor {
				cursor = g.Id
			}
		}
		return guilds, len(raws) == pageSize, nil
	}}
}

// GetGuildChannels streams the guild's channels with category parents
// attached. The endpoint is unpaginated; the stream still hides that from
// callers.
func (c *Client) GetGuildChannels(ctx context.Context, guildId discord.Snowflake) *Stream[discord.Channel] {
	fetched := false
	return &Stream[discord.Channel]{fetch: func(ctx context.Context) ([]discord.Channel, bool, error) {
		if fetched {
			return nil, false, nil
		}
		fetched = true
		body, err := c.get(ctx, "/guilds/"+guildId.String()+"/channels", nil)
		if err != nil {
			return nil, false, err
		}
		channels, err := parseChannelForest(body)
		if err != nil {
			return nil, false, err
		}
		return channels, false, nil
	}}
}

// parseChannelForest parses a channel list and wires category parents.
func parseChannelForest(body []byte) ([]discord.Channel, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, err
	}
	flat := make([]discord.Channel, 0, len(raws))
	byId := make(map[discord.Snowflake]*discord.Channel, len(raws))
	parentIds := make([]discord.Snowflake, len(raws))
	for i, r := range raws {
		var probe struct {
			ParentId discord.Snowflake `json:"parent_id"`
		}
		_ = json.Unmarshal(r, &probe)
		ch, err := discord.ParseChannel(r, nil)
		if err != nil {
			return nil, err
		}
		flat = append(flat, ch)
		parentIds[i] = probe.ParentId
	}
	for i := range flat {
		byId[flat[i].Id] = &flat[i]
	}
	out := make([]discord.Channel, len(flat))
	for i := range flat {
		ch := flat[i]
		if p, ok := byId[parentIds[i]]; ok {
			parent := *p
			ch.Parent = &parent
		}
		out[i] = ch
	}
	return out, nil
}

// GetGuildRoles streams the guild's roles.
func (c *Client) GetGuildRoles(ctx context.Context, guildId discord.Snowflake) *Stream[discord.Role] {
	fetched := false
	return &Stream[discord.Role]{fetch: func(ctx context.Context) ([]discord.Role, bool, error) {
		if fetched {
			return nil, false, nil
		}
		fetched = true
		body, err := c.get(ctx, "/guilds/"+guildId.String()+"/roles", nil)
		if err != nil {
			return nil, false, err
		}
		var raws []json.RawMessage
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, false, err
		}
		roles := make([]discord.Role, 0, len(raws))
		for _, r := range raws {
			role, err := discord.ParseRole(r)
			if err != nil {
				return nil, false, err
			}
			roles = append(roles, role)
		}
		return roles, false, nil
	}}
}

// GetGuildThreads streams the guild's active threads plus, when asked, the
// archived public threads of each given channel.
func (c *Client) GetGuildThreads(ctx context.Context, guildId discord.Snowflake, parents []discord.Channel, includeArchived bool) *Stream[discord.Channel] {
	type phase int
	const (
		phaseActive phase = iota
		phaseArchived
		phaseDone
	)
	p := phaseActive
	next := 0
	byId := make(map[discord.Snowflake]*discord.Channel, len(parents))
	for i := range parents {
		byId[parents[i].Id] = &parents[i]
	}
	attachParents := func(body []byte) ([]discord.Channel, error) {
		var wrapper struct {
			Threads []json.RawMessage `json:"threads"`
		}
		if err := json.Unmarshal(body, &wrapper); err != nil {
			return nil, err
		}
		threads := make([]discord.Channel, 0, len(wrapper.Threads))
		for _, r := range wrapper.Threads {
			var probe struct {
				ParentId discord.Snowflake `json:"parent_id"`
			}
			_ = json.Unmarshal(r, &probe)
			th, err := discord.ParseChannel(r, byId[probe.ParentId])
			if err != nil {
				return nil, err
			}
			threads = append(threads, th)
		}
		return threads, nil
	}

	return &Stream[discord.Channel]{fetch: func(ctx context.Context) ([]discord.Channel, bool, error) {
		for {
			switch p {
			case phaseActive:
				p = phaseArchived
				if !includeArchived {
					p = phaseDone
				}
				body, err := c.get(ctx, "/guilds/"+guildId.String()+"/threads/active", nil)
				if err != nil {
					return nil, false, err
				}
				threads, err := attachParents(body)
				if err != nil {
					return nil, false, err
				}
				return threads, p != phaseDone, nil
			case phaseArchived:
				if next >= len(parents) {
					p = phaseDone
					continue
				}
				parent := parents[next]
				next++
				if parent.Kind != discord.ChannelKindGuildText && parent.Kind != discord.ChannelKindNews && parent.Kind != discord.ChannelKindForum {
					continue
				}
				body, err := c.get(ctx, "/channels/"+parent.Id.String()+"/threads/archived/public", nil)
				if err != nil {
					if errors.Is(err, ErrNotFound) {
						continue
					}
					return nil, false, err
				}
				threads, err := attachParents(body)
				if err != nil {
					return nil, false, err
				}
				return threads, next < len(parents), nil
			default:
				return nil, false, nil
			}
		}
	}}
}

// GetMessageReactions streams the users who reacted with the given emoji,
// in ascending id order.
func (c *Client) GetMessageReactions(ctx context.Context, channelId, messageId discord.Snowflake, emoji discord.Emoji) *Stream[discord.User] {
	reaction := emoji.Name
	if emoji.IsCustom() {
		reaction = emoji.Name + ":" + emoji.Id.String()
	}
	path := "/channels/" + channelId.String() + "/messages/" + messageId.String() +
		"/reactions/" + url.PathEscape(reaction)
	cursor := discord.Snowflake(0)
	return &Stream[discord.User]{fetch: func(ctx context.Context) ([]discord.User, bool, error) {
		q := url.Values{"limit": {"100"}, "after": {cursor.String()}}
		body, err := c.get(ctx, path, q)
		if err != nil {
			return nil, false, err
		}
		var raws []json.RawMessage
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, false, err
		}
		users := make([]discord.User, 0, len(raws))
		for _, r := range raws {
			u, err := discord.ParseUser(r)
			if err != nil {
				return nil, false, err
			}
			users = append(users, u)
			if u.Id > cursor {
				cursor = u.Id
			}
		}
		return users, len(raws) == pageSize, nil
	}}
}
