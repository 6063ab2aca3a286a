package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/tbourn/go-chat-export/internal/discord"
)

// illegalPathChars are replaced in every template substitution so the
// result is a valid file name on all supported filesystems.
const illegalPathChars = `\/:*?"<>|`

// sanitizePathSegment replaces filesystem-illegal characters with '_'.
func sanitizePathSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(illegalPathChars, r) {
			b.WriteByte('_')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExpandPathTemplate substitutes %-codes with guild/channel metadata:
//
//	%g guild id    %G guild name
//	%t parent id   %T parent name
//	%c channel id  %C channel name
//	%p position    %P parent position
//	%a after bound %b before bound  %d current date
//	%% literal percent
//
// Unrecognized codes pass through untouched. Every substitution is escaped
// against filesystem-illegal characters.
func ExpandPathTemplate(template string, guild discord.Guild, channel discord.Channel, after, before discord.Snowflake) string {
	position := func(c *discord.Channel) string {
		if c == nil || c.Position == nil {
			return "0"
		}
		return fmt.Sprintf("%d", *c.Position)
	}
	bound := func(id discord.Snowflake) string {
		if id.IsZero() {
			return ""
		}
		return id.Time().Format("2006-01-02")
	}
	parentName := ""
	parentId := ""
	if channel.Parent != nil {
		parentName = channel.Parent.Name
		parentId = channel.Parent.Id.String()
	}

	var b strings.Builder
	for i := 0; i < len(template); i++ {
		if template[i] != '%' || i+1 >= len(template) {
			b.WriteByte(template[i])
			continue
		}
		i++
		switch template[i] {
		case 'g':
			b.WriteString(sanitizePathSegment(guild.Id.String()))
		case 'G':
			b.WriteString(sanitizePathSegment(guild.Name))
		case 't':
			b.WriteString(sanitizePathSegment(parentId))
		case 'T':
			b.WriteString(sanitizePathSegment(parentName))
		case 'c':
			b.WriteString(sanitizePathSegment(channel.Id.String()))
		case 'C':
			b.WriteString(sanitizePathSegment(channel.Name))
		case 'p':
			b.WriteString(sanitizePathSegment(position(&channel)))
		case 'P':
			b.WriteString(sanitizePathSegment(position(channel.Parent)))
		case 'a':
			b.WriteString(sanitizePathSegment(bound(after)))
		case 'b':
			b.WriteString(sanitizePathSegment(bound(before)))
		case 'd':
			b.WriteString(time.Now().Format("2006-01-02"))
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(template[i])
		}
	}
	return b.String()
}

// DefaultFileName derives the conventional output name:
// "<guild> - [<parent> - ]<channel> [<id>][ (range)].<ext>".
func DefaultFileName(guild discord.Guild, channel discord.Channel, after, before discord.Snowflake, ext string) string {
	var b strings.Builder
	b.WriteString(sanitizePathSegment(guild.Name))
	b.WriteString(" - ")
	if channel.Parent != nil {
		b.WriteString(sanitizePathSegment(channel.Parent.Name))
		b.WriteString(" - ")
	}
	b.WriteString(sanitizePathSegment(channel.Name))
	b.WriteString(" [")
	b.WriteString(channel.Id.String())
	b.WriteString("]")

	switch {
	case !after.IsZero() && !before.IsZero():
		fmt.Fprintf(&b, " (%s to %s)", after.Time().Format("2006-01-02"), before.Time().Format("2006-01-02"))
	case !after.IsZero():
		fmt.Fprintf(&b, " (after %s)", after.Time().Format("2006-01-02"))
	case !before.IsZero():
		fmt.Fprintf(&b, " (before %s)", before.Time().Format("2006-01-02"))
	}
	b.WriteString(".")
	b.WriteString(ext)
	return b.String()
}
