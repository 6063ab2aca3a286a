package writers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tbourn/go-chat-export/internal/discord"
)

const plainTextBanner = "=============================================================="

type plainTextWriter struct {
	w     *bufio.Writer
	res   Resolver
	count int
}

func newPlainTextWriter(w io.Writer, res Resolver) *plainTextWriter {
	return &plainTextWriter{w: bufio.NewWriter(w), res: res}
}

func (p *plainTextWriter) Preamble(_ context.Context) error {
	fmt.Fprintln(p.w, plainTextBanner)
	fmt.Fprintf(p.w, "Guild: %s\n", p.res.Guild().Name)
	fmt.Fprintf(p.w, "Channel: %s\n", p.res.Channel().HierarchicalName())
	if topic := p.res.Channel().Topic; topic != "" {
		fmt.Fprintf(p.w, "Topic: %s\n", topic)
	}
	if after := p.res.After(); !after.IsZero() {
		fmt.Fprintf(p.w, "After: %s\n", p.res.FormatDate(after.Time(), "f"))
	}
	if before := p.res.Before(); !before.IsZero() {
		fmt.Fprintf(p.w, "Before: %s\n", p.res.FormatDate(before.Time(), "f"))
	}
	fmt.Fprintln(p.w, plainTextBanner)
	fmt.Fprintln(p.w)
	return p.w.Flush()
}

func (p *plainTextWriter) WriteMessage(ctx context.Context, m discord.Message) error {
	header := fmt.Sprintf("[%s] %s", p.res.FormatDate(m.Timestamp, "f"), p.res.MemberDisplayName(m.Author))
	if m.IsPinned {
		header += " (pinned)"
	}
	if m.EditedTimestamp != nil {
		header += " (edited)"
	}
	fmt.Fprintln(p.w, header)

	if content := renderText(p.res, m); content != "" {
		fmt.Fprintln(p.w, content)
	}

	if len(m.Attachments) > 0 {
		fmt.Fprintln(p.w, "{Attachments}")
		for _, a := range m.Attachments {
			fmt.Fprintln(p.w, p.res.ResolveAssetURL(ctx, a.URL))
		}
	}
	for _, e := range m.Embeds {
		p.writeEmbed(ctx, e)
	}
	if len(m.Stickers) > 0 {
		fmt.Fprintln(p.w, "{Stickers}")
		for _, s := range m.Stickers {
			fmt.Fprintf(p.w, "%s (%s)\n", s.Name, p.res.ResolveAssetURL(ctx, s.SourceURL))
		}
	}
	if len(m.Reactions) > 0 {
		fmt.Fprintln(p.w, "{Reactions}")
		parts := make([]string, 0, len(m.Reactions))
		for _, r := range m.Reactions {
			if r.Count > 1 {
				parts = append(parts, fmt.Sprintf("%s (%d)", r.Emoji.Code(), r.Count))
			} else {
				parts = append(parts, r.Emoji.Code())
			}
		}
		fmt.Fprintln(p.w, strings.Join(parts, " "))
	}

	fmt.Fprintln(p.w)
	p.count++
	return p.w.Flush()
}

func (p *plainTextWriter) writeEmbed(ctx context.Context, e discord.Embed) {
	fmt.Fprintln(p.w, "{Embed}")
	if e.Author != nil && e.Author.Name != "" {
		fmt.Fprintln(p.w, e.Author.Name)
	}
	if e.URL != "" {
		fmt.Fprintln(p.w, e.URL)
	}
	if e.Title != "" {
		fmt.Fprintln(p.w, e.Title)
	}
	if e.Description != "" {
		fmt.Fprintln(p.w, e.Description)
	}
	for _, f := range e.Fields {
		if f.Name != "" {
			fmt.Fprintln(p.w, f.Name)
		}
		if f.Value != "" {
			fmt.Fprintln(p.w, f.Value)
		}
	}
	for _, img := range e.Images {
		if img.URL != "" {
			fmt.Fprintln(p.w, p.res.ResolveAssetURL(ctx, img.URL))
		}
	}
	if e.Footer != nil && e.Footer.Text != "" {
		fmt.Fprintln(p.w, e.Footer.Text)
	}
}

func (p *plainTextWriter) Postamble(_ context.Context) error {
	fmt.Fprintln(p.w, plainTextBanner)
	fmt.Fprintf(p.w, "Exported %d message(s)\n", p.count)
	fmt.Fprintln(p.w, plainTextBanner)
	return p.w.Flush()
}
