// Package writers contains the per-format message sinks. Each writer
// renders into an io.Writer it is handed; byte accounting and partition
// lifecycle belong to the caller. Lookups (members, channels, roles,
// dates, assets) go through the Resolver so the writers stay free of
// transport concerns.
package writers

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tbourn/go-chat-export/internal/discord"
)

// Format selects the output rendering.
type Format int

const (
	FormatPlainText Format = iota
	FormatHtmlDark
	FormatHtmlLight
	FormatCsv
	FormatJson
)

// ParseFormat parses the config surface's format names.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plaintext", "txt", "text":
		return FormatPlainText, nil
	case "htmldark", "html":
		return FormatHtmlDark, nil
	case "htmllight":
		return FormatHtmlLight, nil
	case "csv":
		return FormatCsv, nil
	case "json":
		return FormatJson, nil
	default:
		return 0, fmt.Errorf("unknown export format %q", s)
	}
}

// String renders the canonical format name.
func (f Format) String() string {
	switch f {
	case FormatPlainText:
		return "PlainText"
	case FormatHtmlDark:
		return "HtmlDark"
	case FormatHtmlLight:
		return "HtmlLight"
	case FormatCsv:
		return "Csv"
	case FormatJson:
		return "Json"
	default:
		return "Unknown"
	}
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	switch f {
	case FormatHtmlDark, FormatHtmlLight:
		return "html"
	case FormatCsv:
		return "csv"
	case FormatJson:
		return "json"
	default:
		return "txt"
	}
}

// Resolver is the per-export lookup surface the writers render against.
// It is implemented by the export context; writers only ever read.
type Resolver interface {
	Guild() discord.Guild
	Channel() discord.Channel
	After() discord.Snowflake
	Before() discord.Snowflake
	FormatMarkdown() bool
	FormatDate(t time.Time, format string) string
	ResolveAssetURL(ctx context.Context, rawURL string) string
	Member(id discord.Snowflake) *discord.Member
	MemberDisplayName(u discord.User) string
	UserColor(id discord.Snowflake) *int
	UserRoles(id discord.Snowflake) []discord.Role
	ChannelName(id discord.Snowflake) string
	RoleName(id discord.Snowflake) string
	ReactionUsers(ctx context.Context, messageId discord.Snowflake, e discord.Emoji) []discord.User
}

// MessageWriter is the writer contract: Preamble once, WriteMessage per
// message in ascending id order, Postamble once. Closing the underlying
// stream is the caller's job.
type MessageWriter interface {
	Preamble(ctx context.Context) error
	WriteMessage(ctx context.Context, m discord.Message) error
	Postamble(ctx context.Context) error
}

// New builds the writer for a format over w.
func New(format Format, w io.Writer, res Resolver) MessageWriter {
	switch format {
	case FormatHtmlDark:
		return newHtmlWriter(w, res, themeDark)
	case FormatHtmlLight:
		return newHtmlWriter(w, res, themeLight)
	case FormatCsv:
		return newCsvWriter(w, res)
	case FormatJson:
		return newJsonWriter(w, res)
	default:
		return newPlainTextWriter(w, res)
	}
}
