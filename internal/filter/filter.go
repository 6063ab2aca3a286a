// Package filter implements the message filter expression language: a
// tokenizer, a precedence-climbing parser, and a composable predicate tree
// evaluated against messages. The grammar, lowest precedence first:
//
//	Or    := And ('or' And)*
//	And   := Unary (('and' | implicit) Unary)*
//	Unary := '-' Primary | Primary
//	Primary := '(' Or ')' | key ':' value | text
//
// Adjacent terms with no operator between them combine with an implicit
// AND. Unrecognized keys and bare text become contains-filters.
package filter

import (
	"regexp"
	"strings"

	"github.com/tbourn/go-chat-export/internal/discord"
)

// Filter is a predicate over messages.
type Filter interface {
	Matches(m discord.Message) bool
}

// Null matches every message; it is the identity of And and the absorbing
// element of Or. Callers must not rely on reference identity.
var Null Filter = nullFilter{}

type nullFilter struct{}

func (nullFilter) Matches(discord.Message) bool { return true }

// And combines two filters conjunctively; either side being Null
// short-circuits to the other.
func And(a, b Filter) Filter {
	if a == Null {
		return b
	}
	if b == Null {
		return a
	}
	return andFilter{a, b}
}

type andFilter struct{ a, b Filter }

func (f andFilter) Matches(m discord.Message) bool { return f.a.Matches(m) && f.b.Matches(m) }

// Or combines two filters disjunctively.
func Or(a, b Filter) Filter {
	if a == Null || b == Null {
		return Null
	}
	return orFilter{a, b}
}

type orFilter struct{ a, b Filter }

func (f orFilter) Matches(m discord.Message) bool { return f.a.Matches(m) || f.b.Matches(m) }

// Negate inverts a filter; double negation unwraps.
func Negate(f Filter) Filter {
	if n, ok := f.(negateFilter); ok {
		return n.inner
	}
	return negateFilter{inner: f}
}

type negateFilter struct{ inner Filter }

func (f negateFilter) Matches(m discord.Message) bool { return !f.inner.Matches(m) }

// containsFilter matches case-insensitive substrings of the content.
type containsFilter struct{ text string }

func (f containsFilter) Matches(m discord.Message) bool {
	return strings.Contains(strings.ToLower(m.Content), strings.ToLower(f.text))
}

// userMatches implements the shared author/mention matching rule: id,
// name, or legacy full name, the latter two case-insensitively.
func userMatches(u discord.User, value string) bool {
	return u.Id.String() == value ||
		strings.EqualFold(u.Name, value) ||
		strings.EqualFold(u.FullName(), value)
}

type fromFilter struct{ value string }

func (f fromFilter) Matches(m discord.Message) bool { return userMatches(m.Author, f.value) }

type mentionsFilter struct{ value string }

func (f mentionsFilter) Matches(m discord.Message) bool {
	for _, u := range m.MentionedUsers {
		if userMatches(u, f.value) {
			return true
		}
	}
	return false
}

type reactionFilter struct{ value string }

func (f reactionFilter) Matches(m discord.Message) bool {
	for _, r := range m.Reactions {
		if strings.EqualFold(r.Emoji.Code(), f.value) || strings.EqualFold(r.Emoji.Name, f.value) {
			return true
		}
	}
	return false
}

var (
	linkPattern   = regexp.MustCompile(`https?://\S+`)
	invitePattern = regexp.MustCompile(`(?i)(discord\.(gg|io|me|li)|discord(app)?\.com/invite)/\w+`)
)

// hasFilter checks for a content kind: attachments of a class, embeds,
// links, invites, stickers, mentions, or the pinned flag.
type hasFilter struct{ kind string }

func (f hasFilter) Matches(m discord.Message) bool {
	switch f.kind {
	case "link":
		if linkPattern.MatchString(m.Content) {
			return true
		}
		for _, e := range m.Embeds {
			if e.URL != "" {
				return true
			}
		}
		return false
	case "embed":
		return len(m.Embeds) > 0
	case "file", "attachment":
		return len(m.Attachments) > 0
	case "video":
		for _, a := range m.Attachments {
			if a.IsVideo() {
				return true
			}
		}
		for _, e := range m.Embeds {
			if e.Video != nil {
				return true
			}
		}
		return false
	case "image":
		for _, a := range m.Attachments {
			if a.IsImage() {
				return true
			}
		}
		for _, e := range m.Embeds {
			if len(e.Images) > 0 || e.Thumbnail != nil {
				return true
			}
		}
		return false
	case "sound", "audio":
		for _, a := range m.Attachments {
			if a.IsAudio() {
				return true
			}
		}
		return false
	case "sticker":
		return len(m.Stickers) > 0
	case "invite":
		return invitePattern.MatchString(m.Content)
	case "mention":
		return len(m.MentionedUsers) > 0
	case "pin":
		return m.IsPinned
	default:
		return false
	}
}

// normalizeHasKind maps pluralisation aliases onto canonical kinds.
func normalizeHasKind(kind string) string {
	kind = strings.ToLower(kind)
	switch kind {
	case "links":
		return "link"
	case "embeds":
		return "embed"
	case "files", "attachments":
		return "file"
	case "videos":
		return "video"
	case "images":
		return "image"
	case "sounds", "audios":
		return "sound"
	case "stickers":
		return "sticker"
	case "invites":
		return "invite"
	case "mentions":
		return "mention"
	case "pins", "pinned":
		return "pin"
	}
	return kind
}
