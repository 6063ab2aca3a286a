package export

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tbourn/go-chat-export/internal/discord"
)

func TestIsFatalClassification(t *testing.T) {
	assert.True(t, IsFatal(errors.New("unclassified")), "unclassified errors abort the job")
	assert.True(t, IsFatal(fatal(errors.New("boom"))))
	assert.False(t, IsFatal(nonFatal(ErrChannelEmpty)))
}

func TestWrapMessageErrorPreservesFatality(t *testing.T) {
	guild := discord.Guild{Id: 1, Name: "Server"}
	channel := discord.Channel{Id: 2, Name: "general"}

	soft := wrapMessageError(nonFatal(ErrChannelEmpty), guild, channel, 42)
	assert.False(t, IsFatal(soft))
	assert.True(t, errors.Is(soft, ErrChannelEmpty), "cause chain must survive wrapping")

	hard := wrapMessageError(errors.New("disk full"), guild, channel, 42)
	assert.True(t, IsFatal(hard))
	assert.Contains(t, hard.Error(), "42")
	assert.Contains(t, hard.Error(), "general")
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	var de *Error
	err := fatal(inner)
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, inner, de.Unwrap())
}
