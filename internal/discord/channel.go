package discord

import (
	"encoding/json"
	"strings"
)

// ChannelKind enumerates the channel types the exporter understands.
// The numeric values follow the wire protocol.
type ChannelKind int

const (
	ChannelKindGuildText ChannelKind = 0
	ChannelKindDM        ChannelKind = 1
	ChannelKindVoice     ChannelKind = 2
	ChannelKindGroupDM   ChannelKind = 3
	ChannelKindCategory  ChannelKind = 4
	ChannelKindNews      ChannelKind = 5

	ChannelKindThreadNews    ChannelKind = 10
	ChannelKindThreadPublic  ChannelKind = 11
	ChannelKindThreadPrivate ChannelKind = 12
	ChannelKindStage         ChannelKind = 13
	ChannelKindForum         ChannelKind = 15
)

// IsThread reports whether the kind denotes any thread variant.
func (k ChannelKind) IsThread() bool {
	return k == ChannelKindThreadNews || k == ChannelKindThreadPublic || k == ChannelKindThreadPrivate
}

// IsDirect reports whether the kind denotes a DM or group DM.
func (k ChannelKind) IsDirect() bool {
	return k == ChannelKindDM || k == ChannelKindGroupDM
}

// IsVoice reports whether the kind denotes a voice-capable channel.
func (k ChannelKind) IsVoice() bool {
	return k == ChannelKindVoice || k == ChannelKindStage
}

// Channel is a message container: a guild channel, a thread, or a DM.
// Parent back-references form a forest of at most two levels
// (category -> channel -> thread).
type Channel struct {
	Id            Snowflake
	Kind          ChannelKind
	GuildId       Snowflake
	Parent        *Channel
	Name          string
	Position      *int
	Topic         string
	IsArchived    bool
	LastMessageId Snowflake
}

// IsEmpty reports whether the channel has never carried a message.
func (c Channel) IsEmpty() bool { return c.LastMessageId.IsZero() }

// MayHaveMessagesAfter reports whether any message can exist strictly
// after the given cursor.
func (c Channel) MayHaveMessagesAfter(cursor Snowflake) bool {
	return !c.IsEmpty() && cursor < c.LastMessageId
}

// MayHaveMessagesBefore reports whether any message can exist strictly
// before the given cursor. The channel id is the lower bound because no
// message predates its channel.
func (c Channel) MayHaveMessagesBefore(cursor Snowflake) bool {
	return !c.IsEmpty() && cursor > c.Id
}

// HierarchicalName joins the parent chain with " / ", outermost first.
func (c Channel) HierarchicalName() string {
	var parts []string
	for cur := &c; cur != nil; cur = cur.Parent {
		parts = append(parts, cur.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " / ")
}

// ParseChannel builds a Channel from its wire representation. The parent,
// when already known to the caller, is attached at construction so the
// value never changes afterwards.
func ParseChannel(data []byte, parent *Channel) (Channel, error) {
	var raw struct {
		Id             Snowflake `json:"id"`
		Type           int       `json:"type"`
		GuildId        Snowflake `json:"guild_id"`
		Name           string    `json:"name"`
		Position       *int      `json:"position"`
		Topic          string    `json:"topic"`
		LastMessageId  Snowflake `json:"last_message_id"`
		Recipients     []json.RawMessage `json:"recipients"`
		ThreadMetadata *struct {
			Archived bool `json:"archived"`
		} `json:"thread_metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Channel{}, err
	}
	c := Channel{
		Id:            raw.Id,
		Kind:          ChannelKind(raw.Type),
		GuildId:       raw.GuildId,
		Parent:        parent,
		Name:          raw.Name,
		Position:      raw.Position,
		Topic:         raw.Topic,
		LastMessageId: raw.LastMessageId,
	}
	if raw.ThreadMetadata != nil {
		c.IsArchived = raw.ThreadMetadata.Archived
	}
	if c.Name == "" {
		// DM channels carry no name; derive one from the recipients.
		names := make([]string, 0, len(raw.Recipients))
		for _, r := range raw.Recipients {
			u, err := ParseUser(r)
			if err != nil {
				continue
			}
			names = append(names, u.DisplayName)
		}
		if len(names) > 0 {
			c.Name = strings.Join(names, ", ")
		} else {
			c.Name = c.Id.String()
		}
	}
	return c, nil
}
