package writers

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/tbourn/go-chat-export/internal/discord"
	"github.com/tbourn/go-chat-export/internal/markdown"
)

// htmlRenderer turns a markdown AST into HTML against the resolver. One
// renderer serves a single message so the jumbo decision is per content
// tree.
type htmlRenderer struct {
	res   Resolver
	jumbo bool
}

// renderContentHTML parses and renders message content for HTML output,
// or escapes it verbatim when markdown formatting is disabled.
func renderContentHTML(ctx context.Context, res Resolver, m discord.Message) string {
	content := m.Content
	if m.IsSystemNotification() {
		return html.EscapeString(m.Kind.SystemNotificationText(res.MemberDisplayName(m.Author), content))
	}
	if !res.FormatMarkdown() {
		return html.EscapeString(content)
	}
	nodes := markdown.Parse(content)
	r := htmlRenderer{res: res, jumbo: isJumbo(nodes)}
	return r.render(ctx, nodes)
}

func (r htmlRenderer) render(ctx context.Context, nodes []markdown.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		r.renderNode(ctx, &b, n)
	}
	return b.String()
}

func (r htmlRenderer) renderNode(ctx context.Context, b *strings.Builder, n markdown.Node) {
	switch v := n.(type) {
	case markdown.TextNode:
		b.WriteString(strings.ReplaceAll(html.EscapeString(v.Content), "\n", "<br>"))

	case markdown.FormattingNode:
		open, closing := formattingTags(v.Kind)
		b.WriteString(open)
		b.WriteString(r.render(ctx, v.Children))
		b.WriteString(closing)

	case markdown.HeadingNode:
		fmt.Fprintf(b, "<h%d>%s</h%d>", v.Level, r.render(ctx, v.Children), v.Level)

	case markdown.ListNode:
		b.WriteString("<ul>")
		for _, item := range v.Items {
			b.WriteString("<li>")
			b.WriteString(r.render(ctx, item.Children))
			b.WriteString("</li>")
		}
		b.WriteString("</ul>")

	case markdown.InlineCodeNode:
		fmt.Fprintf(b, `<code class="chatlog__markdown-pre chatlog__markdown-pre--inline">%s</code>`, html.EscapeString(v.Code))

	case markdown.MultiLineCodeNode:
		lang := ""
		if v.Language != "" {
			lang = fmt.Sprintf(` class="language-%s"`, html.EscapeString(v.Language))
		}
		fmt.Fprintf(b, `<div class="chatlog__markdown-pre chatlog__markdown-pre--multiline"><code%s>%s</code></div>`, lang, html.EscapeString(v.Code))

	case markdown.LinkNode:
		fmt.Fprintf(b, `<a href="%s">%s</a>`, html.EscapeString(v.URL), r.render(ctx, v.Children))

	case markdown.EmojiNode:
		class := "chatlog__emoji"
		if r.jumbo {
			class += " chatlog__emoji--large"
		}
		src := r.res.ResolveAssetURL(ctx, v.ImageURL())
		title := v.Name
		if v.IsCustom() {
			title = ":" + v.Name + ":"
		}
		fmt.Fprintf(b, `<img class="%s" alt="%s" title="%s" src="%s" loading="lazy">`,
			class, html.EscapeString(v.Name), html.EscapeString(title), html.EscapeString(src))

	case markdown.MentionNode:
		fmt.Fprintf(b, `<span class="chatlog__markdown-mention">%s</span>`, html.EscapeString(mentionText(r.res, v)))

	case markdown.TimestampNode:
		if v.IsValid() {
			fmt.Fprintf(b, `<span class="chatlog__markdown-timestamp" title="%s">%s</span>`,
				html.EscapeString(r.res.FormatDate(*v.Instant, "F")),
				html.EscapeString(r.res.FormatDate(*v.Instant, v.Format)))
		} else {
			b.WriteString(`<span class="chatlog__markdown-timestamp">Invalid date</span>`)
		}
	}
}

func formattingTags(kind markdown.FormattingKind) (string, string) {
	switch kind {
	case markdown.FormattingBold:
		return "<strong>", "</strong>"
	case markdown.FormattingItalic:
		return "<em>", "</em>"
	case markdown.FormattingUnderline:
		return "<u>", "</u>"
	case markdown.FormattingStrikethrough:
		return "<s>", "</s>"
	case markdown.FormattingSpoiler:
		return `<span class="chatlog__markdown-spoiler chatlog__markdown-spoiler--hidden" onclick="showSpoiler(event, this)">`, "</span>"
	case markdown.FormattingQuote:
		return `<div class="chatlog__markdown-quote"><div class="chatlog__markdown-quote-border"></div><div class="chatlog__markdown-quote-content">`, "</div></div>"
	default:
		return "", ""
	}
}
