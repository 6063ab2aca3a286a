package writers

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/tbourn/go-chat-export/internal/discord"
	"github.com/tbourn/go-chat-export/internal/markdown"
)

// jsonWriter accumulates the whole export in memory and emits a single
// pretty-printed document on Postamble. Acceptable because the JSON
// format trades streaming for a well-formed top-level object.
type jsonWriter struct {
	w        io.Writer
	res      Resolver
	messages []jsonMessage
}

func newJsonWriter(w io.Writer, res Resolver) *jsonWriter {
	return &jsonWriter{w: w, res: res}
}

type jsonDocument struct {
	Guild        jsonGuild     `json:"guild"`
	Channel      jsonChannel   `json:"channel"`
	DateRange    jsonDateRange `json:"dateRange"`
	ExportedAt   time.Time     `json:"exportedAt"`
	Messages     []jsonMessage `json:"messages"`
	MessageCount int           `json:"messageCount"`
}

type jsonGuild struct {
	Id      discord.Snowflake `json:"id"`
	Name    string            `json:"name"`
	IconURL string            `json:"iconUrl"`
}

type jsonChannel struct {
	Id         discord.Snowflake  `json:"id"`
	Kind       string             `json:"type"`
	CategoryId *discord.Snowflake `json:"categoryId"`
	Category   string             `json:"category,omitempty"`
	Name       string             `json:"name"`
	Topic      string             `json:"topic,omitempty"`
}

type jsonDateRange struct {
	After  *time.Time `json:"after"`
	Before *time.Time `json:"before"`
}

type jsonMessage struct {
	Id                 discord.Snowflake `json:"id"`
	Kind               string            `json:"type"`
	Timestamp          time.Time         `json:"timestamp"`
	TimestampEdited    *time.Time        `json:"timestampEdited"`
	CallEndedTimestamp *time.Time        `json:"callEndedTimestamp"`
	IsPinned           bool              `json:"isPinned"`
	Content            string            `json:"content"`
	Author             jsonUser          `json:"author"`
	Attachments        []jsonAttachment  `json:"attachments"`
	Embeds             []jsonEmbed       `json:"embeds"`
	Stickers           []jsonSticker     `json:"stickers"`
	Reactions          []jsonReaction    `json:"reactions"`
	Mentions           []jsonUser        `json:"mentions"`
	Reference          *jsonReference    `json:"reference,omitempty"`
	Interaction        *jsonInteraction  `json:"interaction,omitempty"`
	InlineEmojis       []jsonEmoji       `json:"inlineEmojis"`
}

type jsonUser struct {
	Id            discord.Snowflake `json:"id"`
	Name          string            `json:"name"`
	Discriminator *int              `json:"discriminator"`
	Nickname      string            `json:"nickname"`
	Color         *string           `json:"color"`
	IsBot         bool              `json:"isBot"`
	Roles         []jsonRole        `json:"roles"`
	AvatarURL     string            `json:"avatarUrl"`
}

type jsonRole struct {
	Id       discord.Snowflake `json:"id"`
	Name     string            `json:"name"`
	Color    *string           `json:"color"`
	Position int               `json:"position"`
}

type jsonAttachment struct {
	Id       discord.Snowflake `json:"id"`
	URL      string            `json:"url"`
	FileName string            `json:"fileName"`
	SizeB    int64             `json:"fileSizeBytes"`
}

type jsonEmbed struct {
	Title       string            `json:"title"`
	URL         string            `json:"url,omitempty"`
	Timestamp   *time.Time        `json:"timestamp"`
	Color       *string           `json:"color,omitempty"`
	Author      *jsonEmbedAuthor  `json:"author,omitempty"`
	Description string            `json:"description"`
	Fields      []jsonEmbedField  `json:"fields"`
	Thumbnail   *jsonEmbedImage   `json:"thumbnail,omitempty"`
	Images      []jsonEmbedImage  `json:"images"`
	Footer      *jsonEmbedFooter  `json:"footer,omitempty"`
}

type jsonEmbedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"iconUrl,omitempty"`
}

type jsonEmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"iconUrl,omitempty"`
}

type jsonEmbedField struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	IsInline bool   `json:"isInline"`
}

type jsonEmbedImage struct {
	URL    string `json:"url"`
	Width  *int   `json:"width,omitempty"`
	Height *int   `json:"height,omitempty"`
}

type jsonSticker struct {
	Id        discord.Snowflake `json:"id"`
	Name      string            `json:"name"`
	Format    string            `json:"format"`
	SourceURL string            `json:"sourceUrl"`
}

type jsonReaction struct {
	Emoji jsonEmoji  `json:"emoji"`
	Count int        `json:"count"`
	Users []jsonUser `json:"users"`
}

type jsonEmoji struct {
	Id         *discord.Snowflake `json:"id"`
	Name       string             `json:"name"`
	Code       string             `json:"code"`
	IsAnimated bool               `json:"isAnimated"`
	ImageURL   string             `json:"imageUrl"`
}

type jsonReference struct {
	MessageId discord.Snowflake  `json:"messageId"`
	ChannelId discord.Snowflake  `json:"channelId"`
	GuildId   *discord.Snowflake `json:"guildId"`
}

type jsonInteraction struct {
	Id   discord.Snowflake `json:"id"`
	Name string            `json:"name"`
	User jsonUser          `json:"user"`
}

func (j *jsonWriter) Preamble(context.Context) error { return nil }

func (j *jsonWriter) WriteMessage(ctx context.Context, m discord.Message) error {
	msg := jsonMessage{
		Id:                 m.Id,
		Kind:               m.Kind.String(),
		Timestamp:          m.Timestamp,
		TimestampEdited:    m.EditedTimestamp,
		CallEndedTimestamp: m.CallEndedTimestamp,
		IsPinned:           m.IsPinned,
		Content:            renderText(j.res, m),
		Author:             j.user(m.Author),
		Attachments:        []jsonAttachment{},
		Embeds:             []jsonEmbed{},
		Stickers:           []jsonSticker{},
		Reactions:          []jsonReaction{},
		Mentions:           []jsonUser{},
		InlineEmojis:       []jsonEmoji{},
	}
	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, jsonAttachment{
			Id: a.Id, URL: j.res.ResolveAssetURL(ctx, a.URL), FileName: a.FileName, SizeB: a.SizeB,
		})
	}
	for _, e := range m.Embeds {
		msg.Embeds = append(msg.Embeds, j.embed(ctx, e))
	}
	for _, s := range m.Stickers {
		msg.Stickers = append(msg.Stickers, jsonSticker{
			Id: s.Id, Name: s.Name, Format: stickerFormatName(s.Format),
			SourceURL: j.res.ResolveAssetURL(ctx, s.SourceURL),
		})
	}
	for _, r := range m.Reactions {
		jr := jsonReaction{Emoji: j.emoji(ctx, r.Emoji), Count: r.Count, Users: []jsonUser{}}
		for _, u := range j.res.ReactionUsers(ctx, m.Id, r.Emoji) {
			jr.Users = append(jr.Users, j.user(u))
		}
		msg.Reactions = append(msg.Reactions, jr)
	}
	for _, u := range m.MentionedUsers {
		msg.Mentions = append(msg.Mentions, j.user(u))
	}
	if m.Reference != nil {
		ref := &jsonReference{MessageId: m.Reference.MessageId, ChannelId: m.Reference.ChannelId}
		if !m.Reference.GuildId.IsZero() {
			g := m.Reference.GuildId
			ref.GuildId = &g
		}
		msg.Reference = ref
	}
	if m.Interaction != nil {
		msg.Interaction = &jsonInteraction{
			Id: m.Interaction.Id, Name: m.Interaction.Name, User: j.user(m.Interaction.User),
		}
	}
	for _, e := range collectEmoji(markdown.ParseMinimal(m.Content)) {
		msg.InlineEmojis = append(msg.InlineEmojis, j.emoji(ctx, e))
	}

	j.messages = append(j.messages, msg)
	return nil
}

func (j *jsonWriter) Postamble(ctx context.Context) error {
	channel := j.res.Channel()
	jc := jsonChannel{
		Id:    channel.Id,
		Kind:  channelKindName(channel.Kind),
		Name:  channel.Name,
		Topic: channel.Topic,
	}
	if channel.Parent != nil {
		id := channel.Parent.Id
		jc.CategoryId = &id
		jc.Category = channel.Parent.Name
	}
	var after, before *time.Time
	if a := j.res.After(); !a.IsZero() {
		t := a.Time()
		after = &t
	}
	if b := j.res.Before(); !b.IsZero() {
		t := b.Time()
		before = &t
	}
	doc := jsonDocument{
		Guild: jsonGuild{
			Id:      j.res.Guild().Id,
			Name:    j.res.Guild().Name,
			IconURL: j.res.ResolveAssetURL(ctx, j.res.Guild().IconURL),
		},
		Channel:      jc,
		DateRange:    jsonDateRange{After: after, Before: before},
		ExportedAt:   time.Now().UTC(),
		Messages:     j.messages,
		MessageCount: len(j.messages),
	}
	if doc.Messages == nil {
		doc.Messages = []jsonMessage{}
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

func (j *jsonWriter) user(u discord.User) jsonUser {
	ju := jsonUser{
		Id:            u.Id,
		Name:          u.Name,
		Discriminator: u.Discriminator,
		Nickname:      j.res.MemberDisplayName(u),
		IsBot:         u.IsBot,
		Roles:         []jsonRole{},
		AvatarURL:     u.AvatarURL,
	}
	if m := j.res.Member(u.Id); m != nil {
		ju.AvatarURL = m.AvatarURL
	}
	ju.Color = hexColor(j.res.UserColor(u.Id))
	for _, r := range j.res.UserRoles(u.Id) {
		ju.Roles = append(ju.Roles, jsonRole{
			Id: r.Id, Name: r.Name, Color: hexColor(r.Color), Position: r.Position,
		})
	}
	return ju
}

func (j *jsonWriter) embed(ctx context.Context, e discord.Embed) jsonEmbed {
	je := jsonEmbed{
		Title:       e.Title,
		URL:         e.URL,
		Timestamp:   e.Timestamp,
		Color:       hexColor(e.Color),
		Description: e.Description,
		Fields:      []jsonEmbedField{},
		Images:      []jsonEmbedImage{},
	}
	if e.Author != nil {
		je.Author = &jsonEmbedAuthor{Name: e.Author.Name, URL: e.Author.URL, IconURL: e.Author.IconURL}
	}
	for _, f := range e.Fields {
		je.Fields = append(je.Fields, jsonEmbedField{Name: f.Name, Value: f.Value, IsInline: f.IsInline})
	}
	if e.Thumbnail != nil {
		je.Thumbnail = &jsonEmbedImage{URL: j.res.ResolveAssetURL(ctx, e.Thumbnail.URL), Width: e.Thumbnail.Width, Height: e.Thumbnail.Height}
	}
	for _, img := range e.Images {
		je.Images = append(je.Images, jsonEmbedImage{URL: j.res.ResolveAssetURL(ctx, img.URL), Width: img.Width, Height: img.Height})
	}
	if e.Footer != nil {
		je.Footer = &jsonEmbedFooter{Text: e.Footer.Text, IconURL: e.Footer.IconURL}
	}
	return je
}

func (j *jsonWriter) emoji(ctx context.Context, e discord.Emoji) jsonEmoji {
	je := jsonEmoji{
		Name:       e.Name,
		Code:       e.Code(),
		IsAnimated: e.IsAnimated,
		ImageURL:   j.res.ResolveAssetURL(ctx, e.ImageURL()),
	}
	if e.IsCustom() {
		id := e.Id
		je.Id = &id
	}
	return je
}

func hexColor(c *int) *string {
	if c == nil {
		return nil
	}
	s := "#" + hexByte(*c>>16) + hexByte(*c>>8) + hexByte(*c)
	return &s
}

func hexByte(v int) string {
	const digits = "0123456789ABCDEF"
	v &= 0xFF
	return string([]byte{digits[v>>4], digits[v&0xF]})
}

func stickerFormatName(f discord.StickerFormat) string {
	switch f {
	case discord.StickerFormatAPNG:
		return "Apng"
	case discord.StickerFormatLottie:
		return "Lottie"
	case discord.StickerFormatGIF:
		return "Gif"
	default:
		return "Png"
	}
}

func channelKindName(k discord.ChannelKind) string {
	switch k {
	case discord.ChannelKindDM:
		return "DirectTextChat"
	case discord.ChannelKindGroupDM:
		return "DirectGroupTextChat"
	case discord.ChannelKindVoice:
		return "GuildVoiceChat"
	case discord.ChannelKindCategory:
		return "GuildCategory"
	case discord.ChannelKindNews:
		return "GuildNews"
	case discord.ChannelKindThreadNews:
		return "GuildNewsThread"
	case discord.ChannelKindThreadPublic:
		return "GuildPublicThread"
	case discord.ChannelKindThreadPrivate:
		return "GuildPrivateThread"
	case discord.ChannelKindStage:
		return "GuildStageVoice"
	case discord.ChannelKindForum:
		return "GuildForum"
	default:
		return "GuildTextChat"
	}
}
