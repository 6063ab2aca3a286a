package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/tbourn/go-chat-export/internal/discord"
)

// ProgressFunc receives advisory export progress in [0,1].
type ProgressFunc func(fraction float64)

// GetMessages streams the channel's messages in ascending id order between
// the optional after/before bounds (zero means unbounded). Pagination is
// cursor-based: each page asks for up to 100 messages after the cursor, the
// newest-first page is reversed, and the cursor advances to the last
// emitted id. A short page ends the stream.
//
// Progress, when a callback is given, is derived from the timestamp of the
// last message in range, probed exactly once before the first page.
func (c *Client) GetMessages(ctx context.Context, channelId discord.Snowflake, after, before discord.Snowflake, onProgress ProgressFunc) *Stream[discord.Message] {
	cursor := after
	probed := false
	var firstTs, lastTs int64

	return &Stream[discord.Message]{fetch: func(ctx context.Context) ([]discord.Message, bool, error) {
		if !probed {
			probed = true
			if onProgress != nil {
				if last, err := c.tryGetLastMessage(ctx, channelId, before); err == nil && last != nil {
					lastTs = last.Timestamp.UnixMilli()
				}
			}
		}

		q := url.Values{"limit": {"100"}, "after": {cursor.String()}}
		body, err := c.get(ctx, "/channels/"+channelId.String()+"/messages", q)
		if err != nil {
			return nil, false, err
		}
		var raws []json.RawMessage
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, false, err
		}

		page := make([]discord.Message, 0, len(raws))
		for _, r := range raws {
			m, err := discord.ParseMessage(r)
			if err != nil {
				return nil, false, err
			}
			page = append(page, m)
		}
		// Newest-first on the wire; ascending for the caller.
		for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
			page[i], page[j] = page[j], page[i]
		}

		if len(page) > 0 {
			if err := c.checkContentIntent(ctx, page); err != nil {
				return nil, false, err
			}
		}

		out := page[:0:len(page)]
		reachedEnd := false
		for _, m := range page {
			if !before.IsZero() && m.Id >= before {
				reachedEnd = true
				break
			}
			out = append(out, m)
			if m.Id > cursor {
				cursor = m.Id
			}
		}

		if onProgress != nil && len(out) > 0 && lastTs > 0 {
			if firstTs == 0 {
				firstTs = out[0].Timestamp.UnixMilli()
			}
			onProgress(progressFraction(out[len(out)-1].Timestamp.UnixMilli(), firstTs, lastTs))
		}

		more := len(raws) == pageSize && !reachedEnd
		return out, more, nil
	}}
}

// progressFraction clamps (now-first)/(last-first) into [0,1].
func progressFraction(now, first, last int64) float64 {
	if last <= first {
		return 1
	}
	f := float64(now-first) / float64(last-first)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// tryGetLastMessage probes the newest message in range, for progress math.
func (c *Client) tryGetLastMessage(ctx context.Context, channelId, before discord.Snowflake) (*discord.Message, error) {
	q := url.Values{"limit": {"1"}}
	if !before.IsZero() {
		q.Set("before", before.String())
	}
	body, err := c.get(ctx, "/channels/"+channelId.String()+"/messages", q)
	if err != nil {
		return nil, err
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil || len(raws) == 0 {
		return nil, err
	}
	m, err := discord.ParseMessage(raws[0])
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// checkContentIntent fails fatally when a whole page of ordinary messages
// arrives with empty content under a bot token whose application lacks the
// message-content intent, without which the export would silently produce
// headers with no bodies.
func (c *Client) checkContentIntent(ctx context.Context, page []discord.Message) error {
	if c.kind != TokenKindBot {
		return nil
	}
	for _, m := range page {
		if strings.TrimSpace(m.Content) != "" || m.IsSystemNotification() {
			return nil
		}
	}
	app, err := c.GetApplication(ctx)
	if err != nil {
		// The probe is advisory; an inaccessible application endpoint must
		// not kill an otherwise working export.
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if !app.HasMessageContentIntent() {
		return ErrMissingIntent
	}
	return nil
}
