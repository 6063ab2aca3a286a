// Package export orchestrates a channel export: it populates the per-export
// cache, pulls the lazy message stream in batches, resolves referenced
// members with bounded parallelism, applies the message filter, and feeds
// the partitioned sink. This file centralizes the error taxonomy so callers
// can distinguish "abort the whole job" from "skip this channel".
package export

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-chat-export/internal/discord"
)

var (
	// ErrUnsupportedChannel is returned for channel kinds that cannot be
	// exported directly (forums hold threads, not messages). Fatal.
	ErrUnsupportedChannel = errors.New("channel kind cannot be exported")

	// ErrChannelEmpty signals that the channel holds no messages in the
	// requested range. Non-fatal: the output file is still produced with
	// preamble and postamble only.
	ErrChannelEmpty = errors.New("channel does not contain any messages in the requested range")
)

// Error is a domain error carrying the fatality policy: fatal errors abort
// the whole job, non-fatal ones skip the current channel.
type Error struct {
	Inner error
	Fatal bool
}

// Error renders the underlying message.
func (e *Error) Error() string { return e.Inner.Error() }

// Unwrap exposes the cause chain to errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Inner }

// IsFatal reports whether err (or anything in its chain) demands aborting
// the whole job. Unclassified errors default to fatal.
func IsFatal(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Fatal
	}
	return true
}

// fatal wraps err as job-aborting.
func fatal(err error) error { return &Error{Inner: err, Fatal: true} }

// nonFatal wraps err as channel-skipping.
func nonFatal(err error) error { return &Error{Inner: err, Fatal: false} }

// wrapMessageError annotates a write failure with its location while
// preserving the original fatality and cause chain.
func wrapMessageError(err error, guild discord.Guild, channel discord.Channel, messageId discord.Snowflake) error {
	wasFatal := IsFatal(err)
	annotated := fmt.Errorf("failed to export message %s in %s / %s: %w",
		messageId, guild.Name, channel.Name, err)
	return &Error{Inner: annotated, Fatal: wasFatal}
}
