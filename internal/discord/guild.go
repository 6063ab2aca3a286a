package discord

import (
	"encoding/json"
	"fmt"
)

const cdnBase = "https://cdn.discordapp.com"

// Guild is a server the exported channel belongs to.
type Guild struct {
	Id      Snowflake
	Name    string
	IconURL string
}

// DirectMessages is the sentinel guild used when exporting DM channels,
// which carry no guild of their own.
var DirectMessages = Guild{Id: 0, Name: "Direct Messages", IconURL: defaultAvatarURL(0)}

// ParseGuild builds a Guild from its wire representation.
func ParseGuild(data []byte) (Guild, error) {
	var raw struct {
		Id   Snowflake `json:"id"`
		Name string    `json:"name"`
		Icon string    `json:"icon"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Guild{}, err
	}
	g := Guild{Id: raw.Id, Name: raw.Name}
	if raw.Icon != "" {
		g.IconURL = fmt.Sprintf("%s/icons/%s/%s.png?size=512", cdnBase, raw.Id, raw.Icon)
	} else {
		g.IconURL = defaultAvatarURL(0)
	}
	return g, nil
}

func defaultAvatarURL(index uint64) string {
	return fmt.Sprintf("%s/embed/avatars/%d.png", cdnBase, index)
}
