package writers

import (
	"bufio"
	"context"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/tbourn/go-chat-export/internal/discord"
	"github.com/tbourn/go-chat-export/internal/markdown"
)

// groupWindow bounds how far apart two messages may be and still share
// one message group.
const groupWindow = 7 * time.Minute

// htmlWriter buffers consecutive messages into groups and flushes a group
// when the next message no longer belongs to it.
type htmlWriter struct {
	w     *bufio.Writer
	res   Resolver
	theme theme
	count int
	group []discord.Message
}

func newHtmlWriter(w io.Writer, res Resolver, th theme) *htmlWriter {
	return &htmlWriter{w: bufio.NewWriter(w), res: res, theme: th}
}

func (h *htmlWriter) Preamble(ctx context.Context) error {
	fmt.Fprintln(h.w, "<!DOCTYPE html>")
	fmt.Fprintf(h.w, "<html lang=\"en\" data-theme=\"%s\">\n<head>\n<meta charset=\"utf-8\">\n", h.theme.Name)
	fmt.Fprintf(h.w, "<title>%s - %s</title>\n", html.EscapeString(h.res.Guild().Name), html.EscapeString(h.res.Channel().Name))
	fmt.Fprint(h.w, "<style>")
	fmt.Fprintf(h.w, htmlStylesheet,
		h.theme.Background, h.theme.Text, h.theme.TextMuted, h.theme.Link, h.theme.Border,
		h.theme.SpoilerHidden, h.theme.QuoteBorder, h.theme.MentionColor, h.theme.CodeBackground,
		h.theme.ReactionBack)
	fmt.Fprintln(h.w, "</style>")
	fmt.Fprint(h.w, "<script>")
	fmt.Fprint(h.w, htmlScripts)
	fmt.Fprintln(h.w, "</script>")
	fmt.Fprintln(h.w, "</head>\n<body>")

	fmt.Fprintln(h.w, `<div class="preamble">`)
	if icon := h.res.Guild().IconURL; icon != "" {
		fmt.Fprintf(h.w, `<div class="preamble__guild-icon-container"><img class="preamble__guild-icon" src="%s" alt=""></div>`+"\n",
			html.EscapeString(h.res.ResolveAssetURL(ctx, icon)))
	}
	fmt.Fprintln(h.w, `<div class="preamble__entries-container">`)
	fmt.Fprintf(h.w, `<div class="preamble__entry">%s</div>`+"\n", html.EscapeString(h.res.Guild().Name))
	fmt.Fprintf(h.w, `<div class="preamble__entry">%s</div>`+"\n", html.EscapeString(h.res.Channel().HierarchicalName()))
	if topic := h.res.Channel().Topic; topic != "" {
		fmt.Fprintf(h.w, `<div class="preamble__entry preamble__entry--small">%s</div>`+"\n", html.EscapeString(topic))
	}
	fmt.Fprintln(h.w, "</div>\n</div>")
	fmt.Fprintln(h.w, `<div class="chatlog">`)
	return h.w.Flush()
}

func (h *htmlWriter) WriteMessage(ctx context.Context, m discord.Message) error {
	if len(h.group) > 0 && !h.canJoinGroup(m) {
		if err := h.flushGroup(ctx); err != nil {
			return err
		}
	}
	h.group = append(h.group, m)
	h.count++
	return nil
}

// canJoinGroup applies the grouping rule: same author id, same rendered
// display name, within the window of the group head, neither reply-like,
// and both sides agree on being system notifications.
func (h *htmlWriter) canJoinGroup(m discord.Message) bool {
	head := h.group[0]
	return head.Author.Id == m.Author.Id &&
		h.res.MemberDisplayName(head.Author) == h.res.MemberDisplayName(m.Author) &&
		m.Timestamp.Sub(head.Timestamp) <= groupWindow &&
		!m.IsReplyLike() && !head.IsReplyLike() &&
		head.IsSystemNotification() == m.IsSystemNotification()
}

func (h *htmlWriter) flushGroup(ctx context.Context) error {
	if len(h.group) == 0 {
		return nil
	}
	head := h.group[0]
	fmt.Fprintln(h.w, `<div class="chatlog__message-group">`)

	avatar := head.Author.AvatarURL
	if member := h.res.Member(head.Author.Id); member != nil {
		avatar = member.AvatarURL
	}
	fmt.Fprintf(h.w, `<div class="chatlog__message-aside"><img class="chatlog__avatar" src="%s" alt=""></div>`+"\n",
		html.EscapeString(h.res.ResolveAssetURL(ctx, avatar)))

	fmt.Fprintln(h.w, `<div class="chatlog__messages">`)
	for i, m := range h.group {
		h.writeMessageHTML(ctx, m, i == 0)
	}
	fmt.Fprintln(h.w, "</div>\n</div>")

	h.group = h.group[:0]
	return h.w.Flush()
}

func (h *htmlWriter) writeMessageHTML(ctx context.Context, m discord.Message, first bool) {
	fmt.Fprintf(h.w, `<div class="chatlog__message-container" id="chatlog__message-container-%s" data-message-id="%s">`+"\n", m.Id, m.Id)
	fmt.Fprintln(h.w, `<div class="chatlog__message">`)

	if m.IsReplyLike() {
		h.writeReference(ctx, m)
	}
	if first {
		authorStyle := ""
		if color := h.res.UserColor(m.Author.Id); color != nil {
			if hex := hexColor(color); hex != nil {
				authorStyle = fmt.Sprintf(` style="color: %s"`, *hex)
			}
		}
		fmt.Fprintf(h.w, `<div class="chatlog__header"><span class="chatlog__author"%s title="%s">%s</span><span class="chatlog__timestamp">%s</span></div>`+"\n",
			authorStyle,
			html.EscapeString(m.Author.FullName()),
			html.EscapeString(h.res.MemberDisplayName(m.Author)),
			html.EscapeString(h.res.FormatDate(m.Timestamp, "f")))
	}

	contentClass := "chatlog__content"
	if m.IsSystemNotification() {
		contentClass += " chatlog__system-notification-content"
	}
	fmt.Fprintf(h.w, `<div class="%s">%s`, contentClass, renderContentHTML(ctx, h.res, m))
	if m.EditedTimestamp != nil {
		fmt.Fprintf(h.w, `<span class="chatlog__edited-timestamp" title="%s">(edited)</span>`,
			html.EscapeString(h.res.FormatDate(*m.EditedTimestamp, "f")))
	}
	fmt.Fprintln(h.w, "</div>")

	for _, a := range m.Attachments {
		h.writeAttachment(ctx, a)
	}
	for _, e := range m.Embeds {
		h.writeEmbed(ctx, e)
	}
	for _, s := range m.Stickers {
		fmt.Fprintf(h.w, `<img class="chatlog__sticker" src="%s" alt="%s" title="%s">`+"\n",
			html.EscapeString(h.res.ResolveAssetURL(ctx, s.SourceURL)),
			html.EscapeString(s.Name), html.EscapeString(s.Name))
	}
	if len(m.Reactions) > 0 {
		fmt.Fprintln(h.w, `<div class="chatlog__reactions">`)
		for _, r := range m.Reactions {
			fmt.Fprintf(h.w, `<div class="chatlog__reaction" title="%s"><img class="chatlog__emoji" src="%s" alt="%s" loading="lazy"><span class="chatlog__reaction-count">%d</span></div>`+"\n",
				html.EscapeString(r.Emoji.Code()),
				html.EscapeString(h.res.ResolveAssetURL(ctx, r.Emoji.ImageURL())),
				html.EscapeString(r.Emoji.Name), r.Count)
		}
		fmt.Fprintln(h.w, "</div>")
	}

	fmt.Fprintln(h.w, "</div>\n</div>")
}

func (h *htmlWriter) writeReference(ctx context.Context, m discord.Message) {
	fmt.Fprintln(h.w, `<div class="chatlog__reference">`)
	switch {
	case m.Interaction != nil:
		fmt.Fprintf(h.w, `<img class="chatlog__reference-avatar" src="%s" alt=""><span class="chatlog__reference-content">%s used <b>/%s</b></span>`+"\n",
			html.EscapeString(h.res.ResolveAssetURL(ctx, m.Interaction.User.AvatarURL)),
			html.EscapeString(h.res.MemberDisplayName(m.Interaction.User)),
			html.EscapeString(m.Interaction.Name))
	case m.ReferencedMessage != nil:
		ref := m.ReferencedMessage
		fmt.Fprintf(h.w, `<img class="chatlog__reference-avatar" src="%s" alt=""><span class="chatlog__reference-content" onclick="scrollToMessage(event, '%s')"><b>%s</b> %s</span>`+"\n",
			html.EscapeString(h.res.ResolveAssetURL(ctx, ref.Author.AvatarURL)),
			ref.Id,
			html.EscapeString(h.res.MemberDisplayName(ref.Author)),
			renderContentHTML(ctx, h.res, *ref))
	default:
		fmt.Fprintln(h.w, `<span class="chatlog__reference-content">Original message was deleted or could not be loaded.</span>`)
	}
	fmt.Fprintln(h.w, "</div>")
}

func (h *htmlWriter) writeAttachment(ctx context.Context, a discord.Attachment) {
	src := html.EscapeString(h.res.ResolveAssetURL(ctx, a.URL))
	name := html.EscapeString(a.FileName)
	fmt.Fprintln(h.w, `<div class="chatlog__attachment">`)
	switch {
	case a.IsImage():
		fmt.Fprintf(h.w, `<a href="%s"><img class="chatlog__attachment-media" src="%s" alt="%s" title="%s (%s)" loading="lazy"></a>`+"\n",
			src, src, name, name, formatSize(a.SizeB))
	case a.IsVideo():
		fmt.Fprintf(h.w, `<video class="chatlog__attachment-media" controls><source src="%s" alt="%s" title="%s (%s)"></video>`+"\n",
			src, name, name, formatSize(a.SizeB))
	case a.IsAudio():
		fmt.Fprintf(h.w, `<audio class="chatlog__attachment-media" controls><source src="%s" alt="%s" title="%s (%s)"></audio>`+"\n",
			src, name, name, formatSize(a.SizeB))
	default:
		fmt.Fprintf(h.w, `<div class="chatlog__attachment-generic"><a href="%s">%s</a> (%s)</div>`+"\n",
			src, name, formatSize(a.SizeB))
	}
	fmt.Fprintln(h.w, "</div>")
}

func (h *htmlWriter) writeEmbed(ctx context.Context, e discord.Embed) {
	pill := "transparent"
	if hex := hexColor(e.Color); hex != nil {
		pill = *hex
	}
	fmt.Fprintln(h.w, `<div class="chatlog__embed">`)
	fmt.Fprintf(h.w, `<div class="chatlog__embed-color-pill" style="background-color: %s"></div>`+"\n", pill)
	fmt.Fprintln(h.w, `<div class="chatlog__embed-content-container">`)
	if e.Author != nil && e.Author.Name != "" {
		fmt.Fprintf(h.w, `<div class="chatlog__embed-author">%s</div>`+"\n", html.EscapeString(e.Author.Name))
	}
	if e.Title != "" {
		if e.URL != "" {
			fmt.Fprintf(h.w, `<div class="chatlog__embed-title"><a href="%s">%s</a></div>`+"\n",
				html.EscapeString(e.URL), html.EscapeString(e.Title))
		} else {
			fmt.Fprintf(h.w, `<div class="chatlog__embed-title">%s</div>`+"\n", html.EscapeString(e.Title))
		}
	}
	if e.Description != "" {
		fmt.Fprintf(h.w, `<div class="chatlog__embed-description">%s</div>`+"\n", h.markdownHTML(ctx, e.Description))
	}
	for _, f := range e.Fields {
		class := "chatlog__embed-field"
		if f.IsInline {
			class += " chatlog__embed-field--inline"
		}
		fmt.Fprintf(h.w, `<div class="%s"><div class="chatlog__embed-field-name">%s</div><div class="chatlog__embed-field-value">%s</div></div>`+"\n",
			class, html.EscapeString(f.Name), h.markdownHTML(ctx, f.Value))
	}
	for _, img := range e.Images {
		if img.URL != "" {
			fmt.Fprintf(h.w, `<img class="chatlog__embed-image" src="%s" alt="" loading="lazy">`+"\n",
				html.EscapeString(h.res.ResolveAssetURL(ctx, img.URL)))
		}
	}
	if e.Footer != nil && e.Footer.Text != "" {
		fmt.Fprintf(h.w, `<div class="chatlog__embed-footer">%s</div>`+"\n", html.EscapeString(e.Footer.Text))
	}
	fmt.Fprintln(h.w, "</div>\n</div>")
}

func (h *htmlWriter) markdownHTML(ctx context.Context, text string) string {
	if !h.res.FormatMarkdown() {
		return html.EscapeString(text)
	}
	r := htmlRenderer{res: h.res}
	return r.render(ctx, markdown.Parse(text))
}

func (h *htmlWriter) Postamble(ctx context.Context) error {
	if err := h.flushGroup(ctx); err != nil {
		return err
	}
	fmt.Fprintln(h.w, "</div>")
	fmt.Fprintf(h.w, `<div class="postamble">Exported %d message(s)</div>`+"\n", h.count)
	fmt.Fprintln(h.w, "</body>\n</html>")
	return h.w.Flush()
}

func formatSize(bytes int64) string {
	switch {
	case bytes >= 1e9:
		return fmt.Sprintf("%.2f GB", float64(bytes)/1e9)
	case bytes >= 1e6:
		return fmt.Sprintf("%.2f MB", float64(bytes)/1e6)
	case bytes >= 1e3:
		return fmt.Sprintf("%.2f KB", float64(bytes)/1e3)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
