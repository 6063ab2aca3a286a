package writers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/tbourn/go-chat-export/internal/discord"
)

// utf8BOM lets spreadsheet tools pick the right decoding when opening the
// file by double click.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type csvWriter struct {
	raw io.Writer
	w   *csv.Writer
	res Resolver
}

func newCsvWriter(w io.Writer, res Resolver) *csvWriter {
	return &csvWriter{raw: w, w: csv.NewWriter(w), res: res}
}

func (c *csvWriter) Preamble(_ context.Context) error {
	if _, err := c.raw.Write(utf8BOM); err != nil {
		return err
	}
	if err := c.w.Write([]string{"AuthorID", "Author", "Date", "Content", "Attachments", "Reactions"}); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *csvWriter) WriteMessage(ctx context.Context, m discord.Message) error {
	attachments := make([]string, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, c.res.ResolveAssetURL(ctx, a.URL))
	}
	reactions := make([]string, 0, len(m.Reactions))
	for _, r := range m.Reactions {
		reactions = append(reactions, fmt.Sprintf("%s (%d)", r.Emoji.Code(), r.Count))
	}
	record := []string{
		m.Author.Id.String(),
		m.Author.FullName(),
		c.res.FormatDate(m.Timestamp, "f"),
		renderText(c.res, m),
		strings.Join(attachments, ","),
		strings.Join(reactions, ","),
	}
	if err := c.w.Write(record); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *csvWriter) Postamble(_ context.Context) error {
	c.w.Flush()
	return c.w.Error()
}
