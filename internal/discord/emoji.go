package discord

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Emoji is either a custom guild emoji (non-zero Id) or a standard Unicode
// emoji (zero Id, Name holds the glyph).
type Emoji struct {
	Id         Snowflake
	Name       string
	IsAnimated bool
}

// IsCustom reports whether the emoji is a guild upload rather than a
// standard glyph.
func (e Emoji) IsCustom() bool { return !e.Id.IsZero() }

// Code returns the identifier used in filters and plain-text output: the
// shortcode name for custom emoji, the glyph itself otherwise.
func (e Emoji) Code() string { return e.Name }

// ImageURL resolves the rendered image: the CDN asset for custom emoji,
// a Twemoji asset for standard glyphs.
func (e Emoji) ImageURL() string {
	if e.IsCustom() {
		ext := "png"
		if e.IsAnimated {
			ext = "gif"
		}
		return fmt.Sprintf("%s/emojis/%s.%s", cdnBase, e.Id, ext)
	}
	return twemojiURL(e.Name)
}

// twemojiURL maps a glyph to its Twemoji SVG by joining the hex codepoints
// with dashes. Variation selector U+FE0F is dropped when another codepoint
// already disambiguates, matching the asset naming scheme.
func twemojiURL(glyph string) string {
	runes := []rune(glyph)
	parts := make([]string, 0, len(runes))
	hasZWJ := false
	for _, r := range runes {
		if r == 0x200D {
			hasZWJ = true
		}
	}
	for _, r := range runes {
		if r == 0xFE0F && !hasZWJ && len(runes) > 1 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%x", r))
	}
	return "https://cdn.jsdelivr.net/gh/twitter/twemoji@latest/assets/svg/" + strings.Join(parts, "-") + ".svg"
}

// ParseEmoji builds an Emoji from its wire representation.
func ParseEmoji(data []byte) (Emoji, error) {
	var raw struct {
		Id       Snowflake `json:"id"`
		Name     string    `json:"name"`
		Animated bool      `json:"animated"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Emoji{}, err
	}
	return Emoji{Id: raw.Id, Name: raw.Name, IsAnimated: raw.Animated}, nil
}

// Reaction is an emoji with its tally on a message.
type Reaction struct {
	Emoji Emoji
	Count int
}

// ParseReaction builds a Reaction from its wire representation.
func ParseReaction(data []byte) (Reaction, error) {
	var raw struct {
		Emoji json.RawMessage `json:"emoji"`
		Count int             `json:"count"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Reaction{}, err
	}
	e, err := ParseEmoji(raw.Emoji)
	if err != nil {
		return Reaction{}, err
	}
	return Reaction{Emoji: e, Count: raw.Count}, nil
}

// StickerFormat enumerates sticker encodings per the wire protocol.
type StickerFormat int

const (
	StickerFormatPNG    StickerFormat = 1
	StickerFormatAPNG   StickerFormat = 2
	StickerFormatLottie StickerFormat = 3
	StickerFormatGIF    StickerFormat = 4
)

// Sticker is a sticker sent with a message.
type Sticker struct {
	Id        Snowflake
	Name      string
	Format    StickerFormat
	SourceURL string
}

// ParseSticker builds a Sticker from its wire representation.
func ParseSticker(data []byte) (Sticker, error) {
	var raw struct {
		Id         Snowflake     `json:"id"`
		Name       string        `json:"name"`
		FormatType StickerFormat `json:"format_type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Sticker{}, err
	}
	s := Sticker{Id: raw.Id, Name: raw.Name, Format: raw.FormatType}
	switch s.Format {
	case StickerFormatLottie:
		s.SourceURL = fmt.Sprintf("%s/stickers/%s.json", cdnBase, s.Id)
	case StickerFormatGIF:
		s.SourceURL = fmt.Sprintf("%s/stickers/%s.gif", cdnBase, s.Id)
	default:
		s.SourceURL = fmt.Sprintf("%s/stickers/%s.png", cdnBase, s.Id)
	}
	return s, nil
}
