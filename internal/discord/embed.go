package discord

import (
	"encoding/json"
	"strings"
	"time"
)

// EmbedAuthor is the author line of an embed.
type EmbedAuthor struct {
	Name    string
	URL     string
	IconURL string
}

// EmbedFooter is the footer line of an embed.
type EmbedFooter struct {
	Text    string
	IconURL string
}

// EmbedField is a titled name/value pair inside an embed.
type EmbedField struct {
	Name     string
	Value    string
	IsInline bool
}

// EmbedImage is an image, thumbnail, or video reference inside an embed.
type EmbedImage struct {
	URL    string
	Width  *int
	Height *int
}

// Embed is rich content attached to a message: link previews, bot cards,
// image galleries.
type Embed struct {
	Title       string
	URL         string
	Timestamp   *time.Time
	Color       *int
	Author      *EmbedAuthor
	Description string
	Fields      []EmbedField
	Thumbnail   *EmbedImage
	Images      []EmbedImage
	Video       *EmbedImage
	Footer      *EmbedFooter
}

// isImageOnly reports whether the embed carries nothing but a single image,
// which is how the upstream represents extra gallery entries.
func (e Embed) isImageOnly() bool {
	return e.Title == "" && e.Description == "" && e.Author == nil &&
		e.Footer == nil && len(e.Fields) == 0 && len(e.Images) == 1
}

// oneImagePerEmbedHosts are hosts whose link previews always produce one
// image per embed; galleries from these hosts arrive as runs of image-only
// embeds sharing the source url.
var oneImagePerEmbedHosts = []string{
	"twitter.com", "x.com", "pbs.twimg.com", "instagram.com", "cdninstagram.com",
}

func isOneImagePerEmbedURL(rawURL string) bool {
	u := strings.ToLower(rawURL)
	for _, h := range oneImagePerEmbedHosts {
		if strings.Contains(u, h) {
			return true
		}
	}
	return false
}

// NormalizeEmbeds merges gallery runs: for consecutive embeds A,B where
// A.URL is on a one-image-per-embed host and B is image-only with the same
// url, A absorbs B's image. The operation is idempotent; afterwards no two
// consecutive embeds share a url in that host set.
func NormalizeEmbeds(embeds []Embed) []Embed {
	if len(embeds) < 2 {
		return embeds
	}
	out := make([]Embed, 0, len(embeds))
	for _, e := range embeds {
		if len(out) > 0 {
			last := &out[len(out)-1]
			if e.isImageOnly() && e.URL != "" && e.URL == last.URL && isOneImagePerEmbedURL(last.URL) {
				last.Images = append(last.Images, e.Images...)
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// ParseEmbed builds an Embed from its wire representation.
func ParseEmbed(data []byte) (Embed, error) {
	var raw struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Timestamp   string `json:"timestamp"`
		Color       *int   `json:"color"`
		Description string `json:"description"`
		Author      *struct {
			Name    string `json:"name"`
			URL     string `json:"url"`
			IconURL string `json:"icon_url"`
		} `json:"author"`
		Fields []struct {
			Name   string `json:"name"`
			Value  string `json:"value"`
			Inline bool   `json:"inline"`
		} `json:"fields"`
		Thumbnail *rawEmbedImage `json:"thumbnail"`
		Image     *rawEmbedImage `json:"image"`
		Video     *rawEmbedImage `json:"video"`
		Footer    *struct {
			Text    string `json:"text"`
			IconURL string `json:"icon_url"`
		} `json:"footer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Embed{}, err
	}
	e := Embed{
		Title:       raw.Title,
		URL:         raw.URL,
		Color:       raw.Color,
		Description: raw.Description,
	}
	if raw.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339, raw.Timestamp); err == nil {
			t = t.UTC()
			e.Timestamp = &t
		}
	}
	if raw.Author != nil {
		e.Author = &EmbedAuthor{Name: raw.Author.Name, URL: raw.Author.URL, IconURL: raw.Author.IconURL}
	}
	for _, f := range raw.Fields {
		e.Fields = append(e.Fields, EmbedField{Name: f.Name, Value: f.Value, IsInline: f.Inline})
	}
	if raw.Thumbnail != nil {
		e.Thumbnail = raw.Thumbnail.toImage()
	}
	if raw.Image != nil {
		e.Images = append(e.Images, *raw.Image.toImage())
	}
	if raw.Video != nil {
		e.Video = raw.Video.toImage()
	}
	if raw.Footer != nil {
		e.Footer = &EmbedFooter{Text: raw.Footer.Text, IconURL: raw.Footer.IconURL}
	}
	return e, nil
}

type rawEmbedImage struct {
	URL      string `json:"url"`
	ProxyURL string `json:"proxy_url"`
	Width    *int   `json:"width"`
	Height   *int   `json:"height"`
}

func (r rawEmbedImage) toImage() *EmbedImage {
	url := r.URL
	if url == "" {
		url = r.ProxyURL
	}
	return &EmbedImage{URL: url, Width: r.Width, Height: r.Height}
}
