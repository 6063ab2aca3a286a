package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidLimit marks an unparseable partition limit string.
var ErrInvalidLimit = errors.New("invalid partition limit")

// PartitionLimit decides when the sink rolls over to a new output file.
type PartitionLimit interface {
	// IsReached reports whether the current partition is full given the
	// messages and bytes written into it so far.
	IsReached(messagesWritten int, bytesWritten int64) bool
}

// NullLimit never triggers a rollover. Callers must not rely on reference
// identity.
var NullLimit PartitionLimit = nullLimit{}

type nullLimit struct{}

func (nullLimit) IsReached(int, int64) bool { return false }

// MessageCountLimit rolls over after n messages per partition.
type MessageCountLimit struct{ Count int }

// IsReached implements PartitionLimit.
func (l MessageCountLimit) IsReached(messagesWritten int, _ int64) bool {
	return messagesWritten >= l.Count
}

// ByteSizeLimit rolls over once a partition's byte budget is spent.
type ByteSizeLimit struct{ Bytes int64 }

// IsReached implements PartitionLimit.
func (l ByteSizeLimit) IsReached(_ int, bytesWritten int64) bool {
	return bytesWritten >= l.Bytes
}

// sizeMagnitudes are 1000-based, matching how users reason about file
// sizes on disk.
var sizeMagnitudes = map[string]float64{
	"b":  1,
	"kb": 1e3,
	"mb": 1e6,
	"gb": 1e9,
	"tb": 1e12,
}

// ParseFileSize parses strings like "10mb", "500kb", "1.5gb" into a byte
// count.
func ParseFileSize(s string) (int64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if i <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLimit, s)
	}
	value, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLimit, s)
	}
	mag, ok := sizeMagnitudes[s[i:]]
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit in %q", ErrInvalidLimit, s)
	}
	return int64(value * mag), nil
}

// ParsePartitionLimit parses the config surface: empty means no limit, a
// bare integer is a message count, a number with a unit suffix is a byte
// size.
func ParsePartitionLimit(s string) (PartitionLimit, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NullLimit, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return nil, fmt.Errorf("%w: count must be positive, got %q", ErrInvalidLimit, s)
		}
		return MessageCountLimit{Count: n}, nil
	}
	bytes, err := ParseFileSize(s)
	if err != nil {
		return nil, err
	}
	if bytes <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %q", ErrInvalidLimit, s)
	}
	return ByteSizeLimit{Bytes: bytes}, nil
}
