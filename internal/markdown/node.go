// Package markdown parses the chat dialect of markdown into an AST using a
// priority-ordered list of matchers, and defines the node union consumed by
// the per-format renderers. Two profiles exist: the full grammar used by
// HTML output, and a minimal one (mentions, custom emoji, timestamps) that
// preserves semantics while stripping styling for the text-based formats.
package markdown

import (
	"time"

	"github.com/tbourn/go-chat-export/internal/discord"
)

// Node is one AST node. Renderers dispatch over the concrete types below.
type Node interface{ node() }

// TextNode is a literal run of text.
type TextNode struct {
	Content string
}

// FormattingKind enumerates inline formatting variants.
type FormattingKind int

const (
	FormattingBold FormattingKind = iota
	FormattingItalic
	FormattingUnderline
	FormattingStrikethrough
	FormattingSpoiler
	FormattingQuote
)

// FormattingNode wraps children in an inline style.
type FormattingNode struct {
	Kind     FormattingKind
	Children []Node
}

// HeadingNode is a heading of level 1..3.
type HeadingNode struct {
	Level    int
	Children []Node
}

// ListItemNode is a single list entry.
type ListItemNode struct {
	Children []Node
}

// ListNode is an unordered list.
type ListNode struct {
	Items []ListItemNode
}

// InlineCodeNode is a single-line code span.
type InlineCodeNode struct {
	Code string
}

// MultiLineCodeNode is a fenced code block with an optional language hint.
type MultiLineCodeNode struct {
	Language string
	Code     string
}

// LinkNode is a hyperlink; Children render the visible title.
type LinkNode struct {
	URL      string
	Children []Node
}

// EmojiNode is a standard glyph (zero Id) or custom emoji reference.
type EmojiNode struct {
	Id         discord.Snowflake
	Name       string
	IsAnimated bool
}

// IsCustom reports whether the emoji is a guild upload.
func (e EmojiNode) IsCustom() bool { return !e.Id.IsZero() }

// ImageURL resolves the emoji's rendered image.
func (e EmojiNode) ImageURL() string {
	return discord.Emoji{Id: e.Id, Name: e.Name, IsAnimated: e.IsAnimated}.ImageURL()
}

// MentionKind enumerates mention targets.
type MentionKind int

const (
	MentionEveryone MentionKind = iota
	MentionHere
	MentionUser
	MentionChannel
	MentionRole
)

// MentionNode is an @everyone/@here broadcast or a user/channel/role
// reference; TargetId is zero for the broadcast kinds.
type MentionNode struct {
	Kind     MentionKind
	TargetId discord.Snowflake
}

// TimestampNode is a `<t:...>` dynamic timestamp. Instant is nil for the
// invalid singleton; Format is empty for the relative styles (r/R).
type TimestampNode struct {
	Instant *time.Time
	Format  string
}

// IsValid reports whether the timestamp parsed.
func (t TimestampNode) IsValid() bool { return t.Instant != nil }

// InvalidTimestamp is the node produced for unparseable timestamp markup.
var InvalidTimestamp = TimestampNode{}

func (TextNode) node()          {}
func (FormattingNode) node()    {}
func (HeadingNode) node()       {}
func (ListNode) node()          {}
func (ListItemNode) node()      {}
func (InlineCodeNode) node()    {}
func (MultiLineCodeNode) node() {}
func (LinkNode) node()          {}
func (EmojiNode) node()         {}
func (MentionNode) node()       {}
func (TimestampNode) node()     {}
