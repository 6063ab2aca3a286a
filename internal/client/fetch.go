package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tbourn/go-chat-export/internal/discord"
)

// GetGuild fetches a guild by id. Id zero resolves to the DM sentinel.
func (c *Client) GetGuild(ctx context.Context, id discord.Snowflake) (discord.Guild, error) {
	if id.IsZero() {
		return discord.DirectMessages, nil
	}
	body, err := c.get(ctx, "/guilds/"+id.String(), nil)
	if err != nil {
		return discord.Guild{}, err
	}
	return discord.ParseGuild(body)
}

// GetChannel fetches a channel by id, resolving the parent chain (thread ->
// channel -> category) at most two levels deep so hierarchical names and
// path templates work.
func (c *Client) GetChannel(ctx context.Context, id discord.Snowflake) (discord.Channel, error) {
	ch, err := c.getChannelShallow(ctx, id, 0)
	if err != nil {
		return discord.Channel{}, err
	}
	return ch, nil
}

func (c *Client) getChannelShallow(ctx context.Context, id discord.Snowflake, depth int) (discord.Channel, error) {
	body, err := c.get(ctx, "/channels/"+id.String(), nil)
	if err != nil {
		return discord.Channel{}, err
	}
	var probe struct {
		ParentId discord.Snowflake `json:"parent_id"`
	}
	_ = json.Unmarshal(body, &probe)

	var parent *discord.Channel
	if !probe.ParentId.IsZero() && depth < 2 {
		p, err := c.getChannelShallow(ctx, probe.ParentId, depth+1)
		if err == nil {
			parent = &p
		} else if !errors.Is(err, ErrNotFound) {
			return discord.Channel{}, err
		}
	}
	return discord.ParseChannel(body, parent)
}

// GetApplication fetches the application behind the current bot token; it
// is cached because only the intent flags are ever consulted.
func (c *Client) GetApplication(ctx context.Context) (discord.Application, error) {
	if c.application != nil {
		return *c.application, nil
	}
	body, err := c.get(ctx, "/applications/@me", nil)
	if err != nil {
		return discord.Application{}, err
	}
	app, err := discord.ParseApplication(body)
	if err != nil {
		return discord.Application{}, err
	}
	c.application = &app
	return app, nil
}

// TryGetUser fetches a user, returning nil (not an error) on 403/404.
func (c *Client) TryGetUser(ctx context.Context, id discord.Snowflake) (*discord.User, error) {
	body, err := c.get(ctx, "/users/"+id.String(), nil)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u, err := discord.ParseUser(body)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// TryGetGuildMember fetches a member, returning nil on 403/404: the user
// has left the guild or is otherwise inaccessible.
func (c *Client) TryGetGuildMember(ctx context.Context, guildId, userId discord.Snowflake) (*discord.Member, error) {
	path := fmt.Sprintf("/guilds/%s/members/%s", guildId, userId)
	body, err := c.get(ctx, path, nil)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m, err := discord.ParseMember(body, guildId, nil)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// TryGetInvite resolves an invite code, returning nil on 403/404.
func (c *Client) TryGetInvite(ctx context.Context, code string) (*discord.Invite, error) {
	body, err := c.get(ctx, "/invites/"+code, nil)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	inv, err := discord.ParseInvite(body)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
