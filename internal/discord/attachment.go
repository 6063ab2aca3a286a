package discord

import (
	"encoding/json"
	"path"
	"strings"
)

var (
	imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".gifv": true, ".bmp": true, ".webp": true}
	videoExtensions = map[string]bool{".mp4": true, ".webm": true, ".mov": true}
	audioExtensions = map[string]bool{".mp3": true, ".wav": true, ".ogg": true, ".flac": true, ".m4a": true}
)

// Attachment is a file uploaded alongside a message.
type Attachment struct {
	Id       Snowflake
	URL      string
	FileName string
	SizeB    int64
	Width    *int
	Height   *int
}

func (a Attachment) extension() string {
	return strings.ToLower(path.Ext(a.FileName))
}

// IsImage reports whether the file extension denotes an image.
func (a Attachment) IsImage() bool { return imageExtensions[a.extension()] }

// IsVideo reports whether the file extension denotes a video.
func (a Attachment) IsVideo() bool { return videoExtensions[a.extension()] }

// IsAudio reports whether the file extension denotes an audio file.
func (a Attachment) IsAudio() bool { return audioExtensions[a.extension()] }

// IsSpoiler reports whether the upload was marked as a spoiler.
func (a Attachment) IsSpoiler() bool { return strings.HasPrefix(a.FileName, "SPOILER_") }

// ParseAttachment builds an Attachment from its wire representation.
func ParseAttachment(data []byte) (Attachment, error) {
	var raw struct {
		Id       Snowflake `json:"id"`
		URL      string    `json:"url"`
		FileName string    `json:"filename"`
		Size     int64     `json:"size"`
		Width    *int      `json:"width"`
		Height   *int      `json:"height"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Attachment{}, err
	}
	return Attachment{
		Id:       raw.Id,
		URL:      raw.URL,
		FileName: raw.FileName,
		SizeB:    raw.Size,
		Width:    raw.Width,
		Height:   raw.Height,
	}, nil
}
