package discord

import "encoding/json"

// Application flag bits relevant to exporting.
const (
	appFlagGatewayMessageContent        = 1 << 18
	appFlagGatewayMessageContentLimited = 1 << 19
)

// Application describes the bot application behind a bot token. Its flags
// tell whether the message-content intent is granted, which decides if
// message bodies arrive populated.
type Application struct {
	Id    Snowflake
	Flags uint
}

// HasMessageContentIntent reports whether the application may read message
// content, either fully or in limited mode.
func (a Application) HasMessageContentIntent() bool {
	return a.Flags&appFlagGatewayMessageContent != 0 ||
		a.Flags&appFlagGatewayMessageContentLimited != 0
}

// ParseApplication builds an Application from its wire representation.
func ParseApplication(data []byte) (Application, error) {
	var raw struct {
		Id    Snowflake `json:"id"`
		Flags uint      `json:"flags"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Application{}, err
	}
	return Application{Id: raw.Id, Flags: raw.Flags}, nil
}

// Invite is a resolved guild invite, fetched only to label invite links.
type Invite struct {
	Code      string
	GuildName string
}

// ParseInvite builds an Invite from its wire representation.
func ParseInvite(data []byte) (Invite, error) {
	var raw struct {
		Code  string `json:"code"`
		Guild *struct {
			Name string `json:"name"`
		} `json:"guild"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Invite{}, err
	}
	inv := Invite{Code: raw.Code}
	if raw.Guild != nil {
		inv.GuildName = raw.Guild.Name
	}
	return inv, nil
}
