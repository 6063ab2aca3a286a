package discord

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MessageKind enumerates message types per the wire protocol. Kinds 1
// through 18 are system notifications (join, pin, boost, thread creation,
// call, ...) rendered with fallback text rather than user content.
type MessageKind int

const (
	MessageKindDefault                            MessageKind = 0
	MessageKindRecipientAdd                       MessageKind = 1
	MessageKindRecipientRemove                    MessageKind = 2
	MessageKindCall                               MessageKind = 3
	MessageKindChannelNameChange                  MessageKind = 4
	MessageKindChannelIconChange                  MessageKind = 5
	MessageKindChannelPinnedMessage               MessageKind = 6
	MessageKindGuildMemberJoin                    MessageKind = 7
	MessageKindGuildBoost                         MessageKind = 8
	MessageKindGuildBoostTier1                    MessageKind = 9
	MessageKindGuildBoostTier2                    MessageKind = 10
	MessageKindGuildBoostTier3                    MessageKind = 11
	MessageKindChannelFollowAdd                   MessageKind = 12
	MessageKindGuildDiscoveryDisqualified         MessageKind = 14
	MessageKindGuildDiscoveryRequalified          MessageKind = 15
	MessageKindGuildDiscoveryGracePeriodInitial   MessageKind = 16
	MessageKindGuildDiscoveryGracePeriodFinal     MessageKind = 17
	MessageKindThreadCreated                      MessageKind = 18
	MessageKindReply                              MessageKind = 19
	MessageKindChatInputCommand                   MessageKind = 20
	MessageKindThreadStarterMessage               MessageKind = 21
	MessageKindGuildInviteReminder                MessageKind = 22
	MessageKindContextMenuCommand                 MessageKind = 23
	MessageKindAutoModerationAction               MessageKind = 24
	MessageKindRoleSubscriptionPurchase           MessageKind = 25
	MessageKindInteractionPremiumUpsell           MessageKind = 26
	MessageKindStageStart                         MessageKind = 27
	MessageKindStageEnd                           MessageKind = 28
	MessageKindStageSpeaker                       MessageKind = 29
	MessageKindStageTopic                         MessageKind = 31
	MessageKindGuildApplicationPremiumSubscription MessageKind = 32
)

// IsSystemNotification reports whether the kind denotes a server event
// rather than user content.
func (k MessageKind) IsSystemNotification() bool {
	return k >= 1 && k <= 18
}

var messageKindNames = map[MessageKind]string{
	MessageKindDefault:              "Default",
	MessageKindRecipientAdd:         "RecipientAdd",
	MessageKindRecipientRemove:      "RecipientRemove",
	MessageKindCall:                 "Call",
	MessageKindChannelNameChange:    "ChannelNameChange",
	MessageKindChannelIconChange:    "ChannelIconChange",
	MessageKindChannelPinnedMessage: "ChannelPinnedMessage",
	MessageKindGuildMemberJoin:      "GuildMemberJoin",
	MessageKindGuildBoost:           "GuildBoost",
	MessageKindGuildBoostTier1:      "GuildBoostTier1",
	MessageKindGuildBoostTier2:      "GuildBoostTier2",
	MessageKindGuildBoostTier3:      "GuildBoostTier3",
	MessageKindChannelFollowAdd:     "ChannelFollowAdd",
	MessageKindThreadCreated:        "ThreadCreated",
	MessageKindReply:                "Reply",
	MessageKindChatInputCommand:     "ChatInputCommand",
	MessageKindThreadStarterMessage: "ThreadStarterMessage",
	MessageKindContextMenuCommand:   "ContextMenuCommand",
	MessageKindAutoModerationAction: "AutoModerationAction",
}

// String renders the kind's wire-protocol name, falling back to the
// numeric value for kinds without a dedicated name.
func (k MessageKind) String() string {
	if name, ok := messageKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Type%d", int(k))
}

// SystemNotificationText renders the fallback text used in place of
// content when the message is a system notification.
func (k MessageKind) SystemNotificationText(author string, content string) string {
	switch k {
	case MessageKindRecipientAdd:
		return author + " added a recipient."
	case MessageKindRecipientRemove:
		return author + " removed a recipient."
	case MessageKindCall:
		return author + " started a call."
	case MessageKindChannelNameChange:
		return author + " changed the channel name: " + content
	case MessageKindChannelIconChange:
		return author + " changed the channel icon."
	case MessageKindChannelPinnedMessage:
		return author + " pinned a message."
	case MessageKindGuildMemberJoin:
		return author + " joined the server."
	case MessageKindGuildBoost:
		return author + " boosted the server!"
	case MessageKindGuildBoostTier1:
		return author + " boosted the server! The server has achieved Level 1!"
	case MessageKindGuildBoostTier2:
		return author + " boosted the server! The server has achieved Level 2!"
	case MessageKindGuildBoostTier3:
		return author + " boosted the server! The server has achieved Level 3!"
	case MessageKindChannelFollowAdd:
		return author + " has added " + content + " to this channel."
	case MessageKindThreadCreated:
		return author + " started a thread: " + content
	default:
		return content
	}
}

// MessageFlags is the message flag bitmask per the wire protocol.
type MessageFlags uint

// MessageReference points at the message this one replies to. The upstream
// inlines at most the direct parent; the chain is never traversed further.
type MessageReference struct {
	MessageId Snowflake
	ChannelId Snowflake
	GuildId   Snowflake
}

// Interaction records the slash command that produced a message.
type Interaction struct {
	Id   Snowflake
	Name string
	User User
}

// Message is a single chat message with everything the writers render.
type Message struct {
	Id                Snowflake
	Kind              MessageKind
	Flags             MessageFlags
	Author            User
	Timestamp         time.Time
	EditedTimestamp   *time.Time
	CallEndedTimestamp *time.Time
	IsPinned          bool
	Content           string
	Attachments       []Attachment
	Embeds            []Embed
	Stickers          []Sticker
	Reactions         []Reaction
	MentionedUsers    []User
	Reference         *MessageReference
	ReferencedMessage *Message
	Interaction       *Interaction
}

// IsSystemNotification reports whether the message is a server event.
func (m Message) IsSystemNotification() bool { return m.Kind.IsSystemNotification() }

// IsReply reports whether the message is a direct reply.
func (m Message) IsReply() bool { return m.Kind == MessageKindReply }

// IsReplyLike reports whether the message visually references another
// message or an invoking interaction.
func (m Message) IsReplyLike() bool { return m.IsReply() || m.Interaction != nil }

// IsEmpty reports whether the message carries no renderable body. Empty
// messages are still exported; they keep their header.
func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == "" &&
		len(m.Attachments) == 0 && len(m.Embeds) == 0 && len(m.Stickers) == 0
}

// GetReferencedUsers collects every user the writers may need to resolve
// for this message: the author, mentions, the replied-to author, and the
// interaction invoker.
func (m Message) GetReferencedUsers() []User {
	users := make([]User, 0, 2+len(m.MentionedUsers))
	users = append(users, m.Author)
	users = append(users, m.MentionedUsers...)
	if m.ReferencedMessage != nil {
		users = append(users, m.ReferencedMessage.Author)
	}
	if m.Interaction != nil {
		users = append(users, m.Interaction.User)
	}
	return users
}

// ParseMessage builds a Message from its wire representation. Embeds are
// normalized at construction; the referenced message, when inlined, is
// parsed one level deep.
func ParseMessage(data []byte) (Message, error) {
	var raw struct {
		Id                Snowflake         `json:"id"`
		Type              int               `json:"type"`
		Flags             uint              `json:"flags"`
		Author            json.RawMessage   `json:"author"`
		Timestamp         time.Time         `json:"timestamp"`
		EditedTimestamp   *time.Time        `json:"edited_timestamp"`
		Pinned            bool              `json:"pinned"`
		Content           string            `json:"content"`
		Attachments       []json.RawMessage `json:"attachments"`
		Embeds            []json.RawMessage `json:"embeds"`
		StickerItems      []json.RawMessage `json:"sticker_items"`
		Reactions         []json.RawMessage `json:"reactions"`
		Mentions          []json.RawMessage `json:"mentions"`
		MessageReference  *struct {
			MessageId Snowflake `json:"message_id"`
			ChannelId Snowflake `json:"channel_id"`
			GuildId   Snowflake `json:"guild_id"`
		} `json:"message_reference"`
		ReferencedMessage json.RawMessage `json:"referenced_message"`
		Interaction       *struct {
			Id   Snowflake       `json:"id"`
			Name string          `json:"name"`
			User json.RawMessage `json:"user"`
		} `json:"interaction"`
		Call *struct {
			EndedTimestamp *time.Time `json:"ended_timestamp"`
		} `json:"call"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Message{}, err
	}
	m := Message{
		Id:              raw.Id,
		Kind:            MessageKind(raw.Type),
		Flags:           MessageFlags(raw.Flags),
		Timestamp:       raw.Timestamp.UTC(),
		IsPinned:        raw.Pinned,
		Content:         raw.Content,
	}
	if raw.EditedTimestamp != nil {
		t := raw.EditedTimestamp.UTC()
		m.EditedTimestamp = &t
	}
	if raw.Call != nil && raw.Call.EndedTimestamp != nil {
		t := raw.Call.EndedTimestamp.UTC()
		m.CallEndedTimestamp = &t
	}
	if len(raw.Author) > 0 {
		author, err := ParseUser(raw.Author)
		if err != nil {
			return Message{}, err
		}
		m.Author = author
	}
	for _, a := range raw.Attachments {
		att, err := ParseAttachment(a)
		if err != nil {
			return Message{}, err
		}
		m.Attachments = append(m.Attachments, att)
	}
	embeds := make([]Embed, 0, len(raw.Embeds))
	for _, e := range raw.Embeds {
		emb, err := ParseEmbed(e)
		if err != nil {
			return Message{}, err
		}
		embeds = append(embeds, emb)
	}
	m.Embeds = NormalizeEmbeds(embeds)
	for _, s := range raw.StickerItems {
		st, err := ParseSticker(s)
		if err != nil {
			return Message{}, err
		}
		m.Stickers = append(m.Stickers, st)
	}
	for _, r := range raw.Reactions {
		re, err := ParseReaction(r)
		if err != nil {
			return Message{}, err
		}
		m.Reactions = append(m.Reactions, re)
	}
	for _, u := range raw.Mentions {
		mu, err := ParseUser(u)
		if err != nil {
			return Message{}, err
		}
		m.MentionedUsers = append(m.MentionedUsers, mu)
	}
	if raw.MessageReference != nil {
		m.Reference = &MessageReference{
			MessageId: raw.MessageReference.MessageId,
			ChannelId: raw.MessageReference.ChannelId,
			GuildId:   raw.MessageReference.GuildId,
		}
	}
	if len(raw.ReferencedMessage) > 0 && string(raw.ReferencedMessage) != "null" {
		ref, err := ParseMessage(raw.ReferencedMessage)
		if err != nil {
			return Message{}, err
		}
		// Depth is capped at one: the upstream only inlines the direct
		// parent, so whatever it nested further is dropped.
		ref.ReferencedMessage = nil
		m.ReferencedMessage = &ref
	}
	if raw.Interaction != nil {
		inter := Interaction{Id: raw.Interaction.Id, Name: raw.Interaction.Name}
		if len(raw.Interaction.User) > 0 {
			u, err := ParseUser(raw.Interaction.User)
			if err != nil {
				return Message{}, err
			}
			inter.User = u
		}
		m.Interaction = &inter
	}
	return m, nil
}
