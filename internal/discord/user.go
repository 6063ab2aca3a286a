package discord

import (
	"encoding/json"
	"fmt"
)

// User is a chat participant as the upstream reports it outside any guild.
type User struct {
	Id            Snowflake
	Name          string
	DisplayName   string
	IsBot         bool
	Discriminator *int
	AvatarURL     string
}

// FullName renders the legacy "name#discriminator" form for old-scheme
// accounts and the plain username for unified-username accounts.
func (u User) FullName() string {
	if u.Discriminator != nil {
		return fmt.Sprintf("%s#%04d", u.Name, *u.Discriminator)
	}
	return u.Name
}

// ParseUser builds a User from its wire representation. A discriminator of
// zero marks a unified-username account and normalizes to nil.
func ParseUser(data []byte) (User, error) {
	var raw struct {
		Id            Snowflake `json:"id"`
		Username      string    `json:"username"`
		GlobalName    string    `json:"global_name"`
		Discriminator string    `json:"discriminator"`
		Bot           bool      `json:"bot"`
		Avatar        string    `json:"avatar"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return User{}, err
	}
	u := User{
		Id:          raw.Id,
		Name:        raw.Username,
		DisplayName: raw.GlobalName,
		IsBot:       raw.Bot,
	}
	if u.DisplayName == "" {
		u.DisplayName = u.Name
	}
	var disc int
	fmt.Sscanf(raw.Discriminator, "%d", &disc)
	if disc != 0 {
		u.Discriminator = &disc
	}
	u.AvatarURL = avatarURL(u.Id, raw.Avatar, u.Discriminator)
	return u, nil
}

// avatarURL resolves the CDN avatar for the given hash, falling back to a
// default avatar keyed by discriminator (legacy scheme) or id>>22 (unified).
func avatarURL(id Snowflake, hash string, discriminator *int) string {
	if hash != "" {
		ext := "png"
		if len(hash) > 2 && hash[:2] == "a_" {
			ext = "gif"
		}
		return fmt.Sprintf("%s/avatars/%s/%s.%s?size=512", cdnBase, id, hash, ext)
	}
	if discriminator != nil {
		return defaultAvatarURL(uint64(*discriminator % 5))
	}
	return defaultAvatarURL((uint64(id) >> 22) % 6)
}

// Member is a user's per-guild identity: nickname, roles and an optional
// guild-specific avatar.
type Member struct {
	User      User
	Nick      string
	RoleIds   []Snowflake
	AvatarURL string
	GuildId   Snowflake
}

// DisplayName prefers the guild nickname over the user's global name.
func (m Member) DisplayName() string {
	if m.Nick != "" {
		return m.Nick
	}
	return m.User.DisplayName
}

// MemberFromUser synthesizes a fallback member for a user who has left the
// guild, so lookups downstream always resolve.
func MemberFromUser(u User) Member {
	return Member{User: u, AvatarURL: u.AvatarURL}
}

// ParseMember builds a Member from its wire representation. fallback is
// used when the payload omits the nested user object.
func ParseMember(data []byte, guildId Snowflake, fallback *User) (Member, error) {
	var raw struct {
		User   json.RawMessage `json:"user"`
		Nick   string          `json:"nick"`
		Roles  []Snowflake     `json:"roles"`
		Avatar string          `json:"avatar"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Member{}, err
	}
	m := Member{Nick: raw.Nick, RoleIds: raw.Roles, GuildId: guildId}
	if len(raw.User) > 0 {
		u, err := ParseUser(raw.User)
		if err != nil {
			return Member{}, err
		}
		m.User = u
	} else if fallback != nil {
		m.User = *fallback
	}
	if raw.Avatar != "" {
		m.AvatarURL = fmt.Sprintf("%s/guilds/%s/users/%s/avatars/%s.png?size=512",
			cdnBase, guildId, m.User.Id, raw.Avatar)
	} else {
		m.AvatarURL = m.User.AvatarURL
	}
	return m, nil
}

// Role is a guild role; Color is nil when the raw colour value is zero,
// meaning the role does not tint member names.
type Role struct {
	Id       Snowflake
	Name     string
	Color    *int
	Position int
}

// ParseRole builds a Role from its wire representation.
func ParseRole(data []byte) (Role, error) {
	var raw struct {
		Id       Snowflake `json:"id"`
		Name     string    `json:"name"`
		Color    int       `json:"color"`
		Position int       `json:"position"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Role{}, err
	}
	r := Role{Id: raw.Id, Name: raw.Name, Position: raw.Position}
	if raw.Color != 0 {
		c := raw.Color
		r.Color = &c
	}
	return r, nil
}
