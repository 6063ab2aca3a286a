package markdown

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-chat-export/internal/discord"
)

// maxDepth caps recursion into container children; beyond it the raw text
// is kept verbatim.
const maxDepth = 32

// parseRun carries per-parse state (the recursion depth).
type parseRun struct {
	depth int
}

// parseWith recurses into child content with the given aggregate.
func (p *parseRun) parseWith(agg *aggregateMatcher, s segment) []Node {
	if p.depth >= maxDepth {
		return []Node{TextNode{Content: s.text()}}
	}
	p.depth++
	nodes := matchAll(p, agg, s)
	p.depth--
	return nodes
}

// Parse parses text with the full grammar.
func Parse(text string) []Node {
	if text == "" {
		return nil
	}
	p := &parseRun{}
	return matchAll(p, fullAggregate, segment{src: text, start: 0, end: len(text)})
}

// ParseMinimal parses text with the minimal profile: only mentions, custom
// emoji and timestamps are recognized; everything else stays literal text.
func ParseMinimal(text string) []Node {
	if text == "" {
		return nil
	}
	p := &parseRun{}
	return matchAll(p, minimalAggregate, segment{src: text, start: 0, end: len(text)})
}

// PlainText flattens an AST back to unstyled text. Mentions, emoji and
// timestamps render as neutral placeholders; pure-text trees round-trip
// exactly.
func PlainText(nodes []Node) string {
	var b strings.Builder
	writePlain(&b, nodes)
	return b.String()
}

func writePlain(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		switch v := n.(type) {
		case TextNode:
			b.WriteString(v.Content)
		case FormattingNode:
			writePlain(b, v.Children)
		case HeadingNode:
			writePlain(b, v.Children)
			b.WriteByte('\n')
		case ListNode:
			for _, item := range v.Items {
				b.WriteString("- ")
				writePlain(b, item.Children)
				b.WriteByte('\n')
			}
		case InlineCodeNode:
			b.WriteString(v.Code)
		case MultiLineCodeNode:
			b.WriteString(v.Code)
		case LinkNode:
			writePlain(b, v.Children)
		case EmojiNode:
			if v.IsCustom() {
				b.WriteString(":" + v.Name + ":")
			} else {
				b.WriteString(v.Name)
			}
		case MentionNode:
			switch v.Kind {
			case MentionEveryone:
				b.WriteString("@everyone")
			case MentionHere:
				b.WriteString("@here")
			default:
				b.WriteString("@" + v.TargetId.String())
			}
		case TimestampNode:
			if v.IsValid() {
				b.WriteString(v.Instant.Format("2006-01-02 15:04"))
			} else {
				b.WriteString("Invalid date")
			}
		}
	}
}

var (
	fullAggregate          = &aggregateMatcher{}
	minimalAggregate       = &aggregateMatcher{}
	boldOnlyAggregate      = &aggregateMatcher{}
	underlineOnlyAggregate = &aggregateMatcher{}
)

// formatting builds the common style-node constructor.
func formatting(kind FormattingKind, agg func() *aggregateMatcher) func(*parseRun, segment, []segment) Node {
	return func(p *parseRun, _ segment, groups []segment) Node {
		return FormattingNode{Kind: kind, Children: p.parseWith(agg(), groups[0])}
	}
}

func full() *aggregateMatcher { return fullAggregate }

// timestampFormats is the accepted set of timestamp style letters. The
// relative styles r/R map to an empty format code.
var timestampFormats = map[string]string{
	"t": "t", "T": "T", "d": "d", "D": "D", "f": "f", "F": "F", "r": "", "R": "",
}

// shortcodeGlyphs maps the common emoji shortcodes the parser resolves
// without an id. Unlisted shortcodes stay literal text.
var shortcodeGlyphs = map[string]string{
	"joy": "\U0001F602", "heart": "❤️", "smile": "\U0001F604",
	"smiley": "\U0001F603", "grinning": "\U0001F600", "wink": "\U0001F609",
	"thumbsup": "\U0001F44D", "thumbsdown": "\U0001F44E", "ok_hand": "\U0001F44C",
	"clap": "\U0001F44F", "wave": "\U0001F44B", "pray": "\U0001F64F",
	"fire": "\U0001F525", "tada": "\U0001F389", "eyes": "\U0001F440",
	"thinking": "\U0001F914", "sob": "\U0001F62D", "cry": "\U0001F622",
	"rofl": "\U0001F923", "sweat_smile": "\U0001F605", "heart_eyes": "\U0001F60D",
	"shrug": "\U0001F937", "rocket": "\U0001F680", "star": "⭐",
	"check": "✔️", "x": "❌", "warning": "⚠️",
	"100": "\U0001F4AF", "skull": "\U0001F480", "wave_hand": "\U0001F44B",
}

func shortcodeAlternation() string {
	keys := make([]string, 0, len(shortcodeGlyphs))
	for k := range shortcodeGlyphs {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	return strings.Join(keys, "|")
}

func init() {
	textLiteral := func(lit string) Node { return TextNode{Content: lit} }

	// --- escapes ---
	shrug := &stringMatcher{needle: `¯\_(ツ)_/¯`, build: textLiteral}
	ignoredEmoji := &regexMatcher{
		re: regexp.MustCompile(`[\x{00A9}\x{00AE}\x{2122}\x{1F3FB}-\x{1F3FF}]`),
		build: func(_ *parseRun, whole segment, _ []segment) Node {
			return TextNode{Content: whole.text()}
		},
	}
	escaped := &regexMatcher{
		re: regexp.MustCompile(`\\([^A-Za-z0-9\s])`),
		build: func(_ *parseRun, _ segment, groups []segment) Node {
			return TextNode{Content: groups[0].text()}
		},
	}

	// --- formatting composites ---
	// `*...**X**...*`: the italic children are re-parsed with only the
	// bold matcher so the asterisks pair up unambiguously.
	italicBold := &regexMatcher{
		re:    regexp.MustCompile(`(?s)\*(\*\*.+?\*\*)\*`),
		build: formatting(FormattingItalic, func() *aggregateMatcher { return boldOnlyAggregate }),
	}
	italicUnderline := &regexMatcher{
		re:    regexp.MustCompile(`(?s)_(__.+?__)_`),
		build: formatting(FormattingItalic, func() *aggregateMatcher { return underlineOnlyAggregate }),
	}

	// --- basic formatting ---
	bold := &delimiterMatcher{
		re:       regexp.MustCompile(`(?s)\*\*(.+?)\*\*`),
		delim:    '*',
		kind:     FormattingBold,
		children: full,
	}
	italicAsterisk := &regexMatcher{
		re:    regexp.MustCompile(`\*([^\s*](?:[^*]*[^\s*])?)\*`),
		build: formatting(FormattingItalic, full),
	}
	underline := &delimiterMatcher{
		re:       regexp.MustCompile(`(?s)__(.+?)__`),
		delim:    '_',
		kind:     FormattingUnderline,
		children: full,
	}
	italicUnderscore := &regexMatcher{
		re:    regexp.MustCompile(`_([^_\n]+)_`),
		build: formatting(FormattingItalic, full),
	}
	strikethrough := &regexMatcher{
		re:    regexp.MustCompile(`(?s)~~(.+?)~~`),
		build: formatting(FormattingStrikethrough, full),
	}
	spoiler := &regexMatcher{
		re:    regexp.MustCompile(`(?s)\|\|(.+?)\|\|`),
		build: formatting(FormattingSpoiler, full),
	}

	// --- quotes ---
	multiLineQuote := &regexMatcher{
		re: regexp.MustCompile(`(?m)^>>> (?s:(.+))`),
		build: func(p *parseRun, _ segment, groups []segment) Node {
			return FormattingNode{Kind: FormattingQuote, Children: p.parseWith(fullAggregate, groups[0])}
		},
	}
	repeatedLineQuote := &regexMatcher{
		re: regexp.MustCompile(`(?m)(?:^> .+\n?){2,}`),
		build: func(p *parseRun, whole segment, _ []segment) Node {
			stripped := stripQuotePrefix(whole.text())
			return FormattingNode{Kind: FormattingQuote, Children: p.parseWith(fullAggregate, ownedSegment(stripped))}
		},
	}
	singleLineQuote := &regexMatcher{
		re: regexp.MustCompile(`(?m)^> (.+\n?)`),
		build: func(p *parseRun, _ segment, groups []segment) Node {
			return FormattingNode{Kind: FormattingQuote, Children: p.parseWith(fullAggregate, groups[0])}
		},
	}

	// --- headings ---
	heading := &regexMatcher{
		re: regexp.MustCompile(`(?m)^(#{1,3}) (.+)\n?`),
		build: func(p *parseRun, _ segment, groups []segment) Node {
			return HeadingNode{Level: len(groups[0].text()), Children: p.parseWith(fullAggregate, groups[1])}
		},
	}

	// --- lists ---
	list := &regexMatcher{
		re: regexp.MustCompile(`(?m)(?:^ *[-*] .+\n?)+`),
		build: func(p *parseRun, whole segment, _ []segment) Node {
			var items []ListItemNode
			for _, line := range strings.Split(strings.TrimRight(whole.text(), "\n"), "\n") {
				body := strings.TrimLeft(line, " ")
				body = strings.TrimPrefix(strings.TrimPrefix(body, "- "), "* ")
				items = append(items, ListItemNode{Children: p.parseWith(fullAggregate, ownedSegment(body))})
			}
			return ListNode{Items: items}
		},
	}

	// --- code ---
	multiLineCode := &regexMatcher{
		re: regexp.MustCompile("(?s)```(?:([A-Za-z0-9+-]*)\n)?(.+?)```"),
		build: func(_ *parseRun, _ segment, groups []segment) Node {
			return MultiLineCodeNode{
				Language: groups[0].text(),
				Code:     strings.Trim(groups[1].text(), "\n"),
			}
		},
	}
	inlineCodeDouble := &regexMatcher{
		re: regexp.MustCompile("``([^`]+)``"),
		build: func(_ *parseRun, _ segment, groups []segment) Node {
			return InlineCodeNode{Code: groups[0].text()}
		},
	}
	inlineCode := &regexMatcher{
		re: regexp.MustCompile("`([^`\n]+)`"),
		build: func(_ *parseRun, _ segment, groups []segment) Node {
			return InlineCodeNode{Code: groups[0].text()}
		},
	}

	// --- mentions ---
	everyone := &stringMatcher{needle: "@everyone", build: func(string) Node {
		return MentionNode{Kind: MentionEveryone}
	}}
	here := &stringMatcher{needle: "@here", build: func(string) Node {
		return MentionNode{Kind: MentionHere}
	}}
	mentionOf := func(kind MentionKind) func(*parseRun, segment, []segment) Node {
		return func(_ *parseRun, _ segment, groups []segment) Node {
			id, err := discord.ParseSnowflake(groups[0].text())
			if err != nil {
				return TextNode{Content: groups[0].text()}
			}
			return MentionNode{Kind: kind, TargetId: id}
		}
	}
	userMention := &regexMatcher{re: regexp.MustCompile(`<@!?(\d+)>`), build: mentionOf(MentionUser)}
	channelMention := &regexMatcher{re: regexp.MustCompile(`<#(\d+)>`), build: mentionOf(MentionChannel)}
	roleMention := &regexMatcher{re: regexp.MustCompile(`<@&(\d+)>`), build: mentionOf(MentionRole)}

	// --- links ---
	maskedLink := &regexMatcher{
		re: regexp.MustCompile(`\[([^\]]+)\]\((\S+?)\)`),
		build: func(p *parseRun, _ segment, groups []segment) Node {
			return LinkNode{URL: groups[1].text(), Children: p.parseWith(fullAggregate, groups[0])}
		},
	}
	hiddenLink := &regexMatcher{
		re: regexp.MustCompile(`<(https?://[^\s<>]+)>`),
		build: func(_ *parseRun, _ segment, groups []segment) Node {
			url := groups[0].text()
			return LinkNode{URL: url, Children: []Node{TextNode{Content: url}}}
		},
	}
	autoLink := &regexMatcher{
		re: regexp.MustCompile(`(https?://[^\s<>]*[^\s<>.,:;"'\)\]])`),
		build: func(_ *parseRun, _ segment, groups []segment) Node {
			url := groups[0].text()
			return LinkNode{URL: url, Children: []Node{TextNode{Content: url}}}
		},
	}

	// --- emoji ---
	standardEmoji := &regexMatcher{
		re: regexp.MustCompile(`(?:[\x{1F1E6}-\x{1F1FF}]{2})|(?:[\x{1F300}-\x{1FAFF}\x{1F000}-\x{1F02F}][\x{1F3FB}-\x{1F3FF}]?(?:\x{200D}[\x{1F300}-\x{1FAFF}][\x{1F3FB}-\x{1F3FF}]?)*\x{FE0F}?)|[\x{2600}-\x{27BF}\x{2B00}-\x{2BFF}\x{2190}-\x{21FF}\x{2700}-\x{27BF}]\x{FE0F}?|[\x{2764}]\x{FE0F}?`),
		build: func(_ *parseRun, whole segment, _ []segment) Node {
			return EmojiNode{Name: whole.text()}
		},
	}
	customEmoji := &regexMatcher{
		re: regexp.MustCompile(`<(a?):(\w+):(\d+)>`),
		build: func(_ *parseRun, _ segment, groups []segment) Node {
			id, err := discord.ParseSnowflake(groups[2].text())
			if err != nil {
				return TextNode{Content: groups[1].text()}
			}
			return EmojiNode{Id: id, Name: groups[1].text(), IsAnimated: groups[0].text() == "a"}
		},
	}
	shortcodeEmoji := &regexMatcher{
		re: regexp.MustCompile(`:(` + shortcodeAlternation() + `):`),
		build: func(_ *parseRun, _ segment, groups []segment) Node {
			return EmojiNode{Name: shortcodeGlyphs[groups[0].text()]}
		},
	}

	// --- timestamp ---
	timestamp := &regexMatcher{
		re: regexp.MustCompile(`<t:(-?\d+)(?::([A-Za-z]))?>`),
		build: func(_ *parseRun, _ segment, groups []segment) Node {
			seconds, err := strconv.ParseInt(groups[0].text(), 10, 64)
			if err != nil {
				return InvalidTimestamp
			}
			format := "f"
			if groups[1].text() != "" {
				mapped, ok := timestampFormats[groups[1].text()]
				if !ok {
					return InvalidTimestamp
				}
				format = mapped
			}
			instant := time.Unix(seconds, 0).UTC()
			return TimestampNode{Instant: &instant, Format: format}
		},
	}

	// Priority order is load-bearing: escapes, formatting composites,
	// basic formatting, quotes (multi before repeated before single),
	// headings, lists, multi-line then inline code, mentions, links,
	// emoji, timestamp.
	fullAggregate.matchers = []matcher{
		shrug, ignoredEmoji, escaped,
		italicBold, italicUnderline,
		bold, italicAsterisk, underline, italicUnderscore, strikethrough, spoiler,
		multiLineQuote, repeatedLineQuote, singleLineQuote,
		heading,
		list,
		multiLineCode, inlineCodeDouble, inlineCode,
		everyone, here, userMention, channelMention, roleMention,
		maskedLink, hiddenLink, autoLink,
		standardEmoji, customEmoji, shortcodeEmoji,
		timestamp,
	}
	minimalAggregate.matchers = []matcher{
		everyone, here, userMention, channelMention, roleMention,
		customEmoji,
		timestamp,
	}
	boldOnlyAggregate.matchers = []matcher{bold}
	underlineOnlyAggregate.matchers = []matcher{underline}
}

// stripQuotePrefix removes the "> " marker from each quoted line.
func stripQuotePrefix(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, "> ")
	}
	return strings.Join(lines, "\n")
}

// ownedSegment wraps derived text (no longer a window into the original
// source) as a segment.
func ownedSegment(s string) segment {
	return segment{src: s, start: 0, end: len(s)}
}
