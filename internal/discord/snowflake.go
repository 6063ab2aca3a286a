// Package discord defines the immutable value objects that flow through the
// export pipeline: guilds, channels, users, members, roles, messages and
// their satellite entities (attachments, embeds, reactions, stickers,
// emoji). Every entity is constructed exactly once from wire JSON and never
// mutated afterwards; unknown wire fields are ignored and missing optional
// fields stay at their zero value or nil.
package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// epochMs is the service epoch (2015-01-01T00:00:00Z) in Unix milliseconds.
// The high 42 bits of every snowflake count milliseconds since this instant.
const epochMs int64 = 1420070400000

// ErrInvalidSnowflake is returned by ParseSnowflake when the input is
// neither a decimal identifier nor a recognizable date.
var ErrInvalidSnowflake = errors.New("invalid snowflake")

// Snowflake is a 64-bit unsigned identifier whose high 42 bits encode a
// millisecond timestamp. The zero value means "unset". Ordering snowflakes
// numerically orders them chronologically.
//
// Snowflakes must never pass through a float: IEEE-754 doubles lose the low
// bits of realistic identifiers, so parsing and formatting stay on uint64.
type Snowflake uint64

// SnowflakeFromTime derives the smallest snowflake whose timestamp is t.
// Useful for turning a date range boundary into a pagination cursor.
func SnowflakeFromTime(t time.Time) Snowflake {
	ms := t.UnixMilli() - epochMs
	if ms < 0 {
		ms = 0
	}
	return Snowflake(uint64(ms) << 22)
}

// ParseSnowflake parses s either as a decimal identifier or, failing that,
// as an ISO-8601 date or date-time interpreted in UTC.
func ParseSnowflake(s string) (Snowflake, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidSnowflake
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Snowflake(n), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return SnowflakeFromTime(t), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSnowflake, s)
}

// IsZero reports whether the snowflake is unset.
func (s Snowflake) IsZero() bool { return s == 0 }

// Time returns the timestamp embedded in the high 42 bits, in UTC.
func (s Snowflake) Time() time.Time {
	return time.UnixMilli(int64(uint64(s)>>22) + epochMs).UTC()
}

// String renders the snowflake as its canonical decimal form.
func (s Snowflake) String() string { return strconv.FormatUint(uint64(s), 10) }

// MarshalJSON encodes the snowflake as a JSON string, matching the wire
// format, so that 64-bit precision survives JSON consumers.
func (s Snowflake) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts a string, a bare number, or null.
func (s *Snowflake) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = 0
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSnowflake, data)
	}
	*s = Snowflake(n)
	return nil
}
