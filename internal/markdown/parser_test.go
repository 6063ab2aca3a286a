package markdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-chat-export/internal/discord"
)

func TestParsePlainTextRoundTrip(t *testing.T) {
	cases := []string{
		"hello world",
		"multiple\nlines of plain text",
		"punctuation! and? other, things.",
	}
	for _, s := range cases {
		nodes := Parse(s)
		require.Len(t, nodes, 1, "input %q", s)
		if got := PlainText(nodes); got != s {
			t.Fatalf("round trip %q = %q", s, got)
		}
	}
}

func TestParseBoldWithNestedItalic(t *testing.T) {
	nodes := Parse("**bold *it*** text")
	require.Len(t, nodes, 2)

	bold, ok := nodes[0].(FormattingNode)
	require.True(t, ok)
	assert.Equal(t, FormattingBold, bold.Kind)
	require.Len(t, bold.Children, 2)
	assert.Equal(t, TextNode{Content: "bold "}, bold.Children[0])

	it, ok := bold.Children[1].(FormattingNode)
	require.True(t, ok)
	assert.Equal(t, FormattingItalic, it.Kind)
	require.Len(t, it.Children, 1)
	assert.Equal(t, TextNode{Content: "it"}, it.Children[0])

	assert.Equal(t, TextNode{Content: " text"}, nodes[1])
}

func TestParseShrugStaysLiteral(t *testing.T) {
	nodes := Parse(`¯\_(ツ)_/¯`)
	require.Len(t, nodes, 1)
	assert.Equal(t, TextNode{Content: `¯\_(ツ)_/¯`}, nodes[0])
}

func TestParseEscapes(t *testing.T) {
	nodes := Parse(`\*not italic\*`)
	assert.Equal(t, "*not italic*", PlainText(nodes))
	for _, n := range nodes {
		_, isFormatting := n.(FormattingNode)
		assert.False(t, isFormatting)
	}
}

func TestParseFormattingVariants(t *testing.T) {
	cases := []struct {
		in   string
		kind FormattingKind
	}{
		{"**b**", FormattingBold},
		{"*i*", FormattingItalic},
		{"_i_", FormattingItalic},
		{"__u__", FormattingUnderline},
		{"~~s~~", FormattingStrikethrough},
		{"||sp||", FormattingSpoiler},
		{"> quoted\n", FormattingQuote},
	}
	for _, tc := range cases {
		nodes := Parse(tc.in)
		require.NotEmpty(t, nodes, "input %q", tc.in)
		f, ok := nodes[0].(FormattingNode)
		require.True(t, ok, "input %q got %T", tc.in, nodes[0])
		assert.Equal(t, tc.kind, f.Kind, "input %q", tc.in)
	}
}

func TestParseItalicBoldComposite(t *testing.T) {
	nodes := Parse("***x***")
	require.Len(t, nodes, 1)
	it, ok := nodes[0].(FormattingNode)
	require.True(t, ok)
	require.Equal(t, FormattingItalic, it.Kind)
	require.Len(t, it.Children, 1)
	b, ok := it.Children[0].(FormattingNode)
	require.True(t, ok)
	assert.Equal(t, FormattingBold, b.Kind)
}

func TestParseHeading(t *testing.T) {
	nodes := Parse("## Title\nbody")
	require.GreaterOrEqual(t, len(nodes), 2)
	h, ok := nodes[0].(HeadingNode)
	require.True(t, ok)
	assert.Equal(t, 2, h.Level)
	assert.Equal(t, "Title", PlainText(h.Children))
}

func TestParseList(t *testing.T) {
	nodes := Parse("- one\n- two\n- three\n")
	require.Len(t, nodes, 1)
	l, ok := nodes[0].(ListNode)
	require.True(t, ok)
	require.Len(t, l.Items, 3)
	assert.Equal(t, "two", PlainText(l.Items[1].Children))
}

func TestParseCode(t *testing.T) {
	nodes := Parse("`inline`")
	require.Len(t, nodes, 1)
	assert.Equal(t, InlineCodeNode{Code: "inline"}, nodes[0])

	nodes = Parse("```go\nfunc main() {}\n```")
	require.Len(t, nodes, 1)
	block, ok := nodes[0].(MultiLineCodeNode)
	require.True(t, ok)
	assert.Equal(t, "go", block.Language)
	assert.Equal(t, "func main() {}", block.Code)
}

func TestParseMentions(t *testing.T) {
	nodes := Parse("hi <@123> in <#456> with <@&789> @everyone")
	var mentions []MentionNode
	for _, n := range nodes {
		if m, ok := n.(MentionNode); ok {
			mentions = append(mentions, m)
		}
	}
	require.Len(t, mentions, 4)
	assert.Equal(t, MentionNode{Kind: MentionUser, TargetId: 123}, mentions[0])
	assert.Equal(t, MentionNode{Kind: MentionChannel, TargetId: 456}, mentions[1])
	assert.Equal(t, MentionNode{Kind: MentionRole, TargetId: 789}, mentions[2])
	assert.Equal(t, MentionEveryone, mentions[3].Kind)
}

func TestParseLinks(t *testing.T) {
	nodes := Parse("[title](https://example.com/x) and https://example.com/y")
	var links []LinkNode
	for _, n := range nodes {
		if l, ok := n.(LinkNode); ok {
			links = append(links, l)
		}
	}
	require.Len(t, links, 2)
	assert.Equal(t, "https://example.com/x", links[0].URL)
	assert.Equal(t, "title", PlainText(links[0].Children))
	assert.Equal(t, "https://example.com/y", links[1].URL)
}

func TestParseCustomEmoji(t *testing.T) {
	nodes := Parse("<a:party:112233>")
	require.Len(t, nodes, 1)
	e, ok := nodes[0].(EmojiNode)
	require.True(t, ok)
	assert.Equal(t, discord.Snowflake(112233), e.Id)
	assert.Equal(t, "party", e.Name)
	assert.True(t, e.IsAnimated)
	assert.True(t, e.IsCustom())
}

func TestParseTimestamp(t *testing.T) {
	nodes := Parse("<t:1620000000:F>")
	require.Len(t, nodes, 1)
	ts, ok := nodes[0].(TimestampNode)
	require.True(t, ok)
	require.True(t, ts.IsValid())
	assert.Equal(t, "F", ts.Format)
	assert.Equal(t, time.Unix(1620000000, 0).UTC(), *ts.Instant)

	// Relative styles carry no format code.
	nodes = Parse("<t:1620000000:R>")
	ts = nodes[0].(TimestampNode)
	assert.Equal(t, "", ts.Format)
	assert.True(t, ts.IsValid())

	// Unknown style letters collapse to the invalid singleton.
	nodes = Parse("<t:1620000000:q>")
	ts = nodes[0].(TimestampNode)
	assert.False(t, ts.IsValid())

	// Negative seconds are legal (pre-epoch instants).
	nodes = Parse("<t:-100>")
	ts = nodes[0].(TimestampNode)
	require.True(t, ts.IsValid())
	assert.True(t, ts.Instant.Before(time.Unix(0, 0)))
}

func TestParseMinimalProfile(t *testing.T) {
	nodes := ParseMinimal("**bold** <@123> <:x:9> <t:0:d>")
	// Styling must stay literal; mentions, custom emoji and timestamps
	// must still resolve.
	assert.Equal(t, TextNode{Content: "**bold** "}, nodes[0])
	var kinds []string
	for _, n := range nodes {
		switch n.(type) {
		case MentionNode:
			kinds = append(kinds, "mention")
		case EmojiNode:
			kinds = append(kinds, "emoji")
		case TimestampNode:
			kinds = append(kinds, "timestamp")
		}
	}
	assert.Equal(t, []string{"mention", "emoji", "timestamp"}, kinds)
}

func TestParseQuoteVariants(t *testing.T) {
	nodes := Parse(">>> all\nof this")
	require.Len(t, nodes, 1)
	q := nodes[0].(FormattingNode)
	assert.Equal(t, FormattingQuote, q.Kind)
	assert.Equal(t, "all\nof this", PlainText(q.Children))

	nodes = Parse("> a\n> b\n")
	require.Len(t, nodes, 1)
	q = nodes[0].(FormattingNode)
	assert.Equal(t, FormattingQuote, q.Kind)
	assert.Equal(t, "a\nb\n", PlainText(q.Children))
}

func TestParseDepthCap(t *testing.T) {
	deep := ""
	for i := 0; i < 40; i++ {
		deep += "**"
	}
	deep += "x"
	for i := 0; i < 40; i++ {
		deep += "**"
	}
	// Must terminate and cover the input; beyond the cap content stays
	// literal.
	nodes := Parse(deep)
	assert.NotEmpty(t, nodes)
}
