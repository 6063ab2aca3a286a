package writers

import (
	"strings"
	"unicode"

	"github.com/tbourn/go-chat-export/internal/discord"
	"github.com/tbourn/go-chat-export/internal/markdown"
)

// renderText produces the text-format representation of message content.
// With markdown formatting enabled the minimal profile is used, so styling
// stays verbatim while mentions, custom emoji and timestamps resolve to
// readable text. System notifications render their fallback text instead.
func renderText(res Resolver, m discord.Message) string {
	if m.IsSystemNotification() {
		return m.Kind.SystemNotificationText(res.MemberDisplayName(m.Author), m.Content)
	}
	if !res.FormatMarkdown() {
		return m.Content
	}
	return flattenText(res, markdown.ParseMinimal(m.Content))
}

func flattenText(res Resolver, nodes []markdown.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch v := n.(type) {
		case markdown.TextNode:
			b.WriteString(v.Content)
		case markdown.MentionNode:
			b.WriteString(mentionText(res, v))
		case markdown.EmojiNode:
			if v.IsCustom() {
				b.WriteString(":" + v.Name + ":")
			} else {
				b.WriteString(v.Name)
			}
		case markdown.TimestampNode:
			if v.IsValid() {
				b.WriteString(res.FormatDate(*v.Instant, v.Format))
			} else {
				b.WriteString("Invalid date")
			}
		}
	}
	return b.String()
}

func mentionText(res Resolver, m markdown.MentionNode) string {
	switch m.Kind {
	case markdown.MentionEveryone:
		return "@everyone"
	case markdown.MentionHere:
		return "@here"
	case markdown.MentionChannel:
		return "#" + res.ChannelName(m.TargetId)
	case markdown.MentionRole:
		return "@" + res.RoleName(m.TargetId)
	default:
		if member := res.Member(m.TargetId); member != nil {
			return "@" + member.DisplayName()
		}
		return "@Unknown"
	}
}

// collectEmoji walks a content tree and returns inline emoji de-duplicated
// by code, in first-appearance order.
func collectEmoji(nodes []markdown.Node) []discord.Emoji {
	var out []discord.Emoji
	seen := map[string]bool{}
	var walk func(ns []markdown.Node)
	walk = func(ns []markdown.Node) {
		for _, n := range ns {
			switch v := n.(type) {
			case markdown.EmojiNode:
				key := v.Name
				if v.IsCustom() {
					key = v.Id.String()
				}
				if !seen[key] {
					seen[key] = true
					out = append(out, discord.Emoji{Id: v.Id, Name: v.Name, IsAnimated: v.IsAnimated})
				}
			case markdown.FormattingNode:
				walk(v.Children)
			case markdown.HeadingNode:
				walk(v.Children)
			case markdown.ListNode:
				for _, item := range v.Items {
					walk(item.Children)
				}
			case markdown.LinkNode:
				walk(v.Children)
			}
		}
	}
	walk(nodes)
	return out
}

// isJumbo reports whether every non-whitespace node in the tree is an
// emoji, which flips HTML rendering to the enlarged emoji class.
func isJumbo(nodes []markdown.Node) bool {
	sawEmoji := false
	for _, n := range nodes {
		switch v := n.(type) {
		case markdown.EmojiNode:
			sawEmoji = true
		case markdown.TextNode:
			if strings.TrimFunc(v.Content, unicode.IsSpace) != "" {
				return false
			}
		default:
			return false
		}
	}
	return sawEmoji
}
