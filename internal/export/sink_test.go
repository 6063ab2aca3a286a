package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-chat-export/internal/discord"
	"github.com/tbourn/go-chat-export/internal/writers"
)

// sinkResolver is the minimal lookup surface the sink tests need; the
// real implementation is *Context.
type sinkResolver struct{}

func (sinkResolver) Guild() discord.Guild      { return discord.Guild{Id: 1, Name: "Server"} }
func (sinkResolver) Channel() discord.Channel  { return discord.Channel{Id: 2, Name: "general"} }
func (sinkResolver) After() discord.Snowflake  { return 0 }
func (sinkResolver) Before() discord.Snowflake { return 0 }
func (sinkResolver) FormatMarkdown() bool      { return false }
func (sinkResolver) FormatDate(t time.Time, _ string) string {
	return t.UTC().Format("01/02/2006 3:04 PM")
}
func (sinkResolver) ResolveAssetURL(_ context.Context, u string) string { return u }
func (sinkResolver) Member(discord.Snowflake) *discord.Member           { return nil }
func (sinkResolver) MemberDisplayName(u discord.User) string            { return u.DisplayName }
func (sinkResolver) UserColor(discord.Snowflake) *int                   { return nil }
func (sinkResolver) UserRoles(discord.Snowflake) []discord.Role         { return nil }
func (sinkResolver) ChannelName(discord.Snowflake) string               { return "general" }
func (sinkResolver) RoleName(discord.Snowflake) string                  { return "role" }
func (sinkResolver) ReactionUsers(context.Context, discord.Snowflake, discord.Emoji) []discord.User {
	return nil
}

func sinkMessage(id uint64) discord.Message {
	return discord.Message{
		Id:        discord.Snowflake(id),
		Author:    discord.User{Id: 9, Name: "alice", DisplayName: "alice"},
		Timestamp: time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC),
		Content:   "message content",
	}
}

func TestSinkSinglePartition(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "out.txt")
	sink := NewPartitionedSink(sinkResolver{}, writers.FormatPlainText, base, NullLimit)

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		require.NoError(t, sink.WriteMessage(ctx, sinkMessage(uint64(i))))
	}
	require.NoError(t, sink.Close(ctx))

	assert.Equal(t, 3, sink.MessagesWritten())
	data, err := os.ReadFile(base)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Exported 3 message(s)")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no partition siblings without a limit")
}

func TestSinkPartitionRollover(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "out.txt")
	sink := NewPartitionedSink(sinkResolver{}, writers.FormatPlainText, base, MessageCountLimit{Count: 3})

	ctx := context.Background()
	for i := 1; i <= 4; i++ {
		require.NoError(t, sink.WriteMessage(ctx, sinkMessage(uint64(i))))
	}
	require.NoError(t, sink.Close(ctx))

	first, err := os.ReadFile(base)
	require.NoError(t, err)
	assert.Contains(t, string(first), "Exported 3 message(s)")

	second, err := os.ReadFile(filepath.Join(dir, "out [part 2].txt"))
	require.NoError(t, err)
	assert.Contains(t, string(second), "Exported 1 message(s)")

	assert.Equal(t, 4, sink.MessagesWritten())
}

func TestSinkByteLimitExceedsByAtMostOneMessage(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "out.txt")
	sink := NewPartitionedSink(sinkResolver{}, writers.FormatPlainText, base, ByteSizeLimit{Bytes: 400})

	ctx := context.Background()
	for i := 1; i <= 10; i++ {
		require.NoError(t, sink.WriteMessage(ctx, sinkMessage(uint64(i))))
	}
	require.NoError(t, sink.Close(ctx))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Greater(t, len(entries), 1, "byte limit should have cut partitions")
}

func TestSinkEmptyExportStillWritesFile(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "empty.txt")
	sink := NewPartitionedSink(sinkResolver{}, writers.FormatPlainText, base, NullLimit)

	require.NoError(t, sink.Close(context.Background()))

	data, err := os.ReadFile(base)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Guild: Server")
	assert.Contains(t, string(data), "Exported 0 message(s)")
}

func TestSinkBytesWrittenMatchesFile(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "count.txt")
	sink := NewPartitionedSink(sinkResolver{}, writers.FormatPlainText, base, NullLimit)

	ctx := context.Background()
	require.NoError(t, sink.WriteMessage(ctx, sinkMessage(1)))
	require.NoError(t, sink.WriteMessage(ctx, sinkMessage(2)))

	// The plaintext writer flushes per message, so the counter matches the
	// bytes on disk exactly.
	info, err := os.Stat(base)
	require.NoError(t, err)
	assert.Equal(t, sink.counter.n, info.Size())

	require.NoError(t, sink.Close(ctx))
}

func TestPartitionPathInjection(t *testing.T) {
	sink := NewPartitionedSink(sinkResolver{}, writers.FormatHtmlDark, "dir/export.html", NullLimit)
	assert.Equal(t, "dir/export.html", sink.partitionPath(0))
	assert.Equal(t, "dir/export [part 2].html", sink.partitionPath(1))
	assert.Equal(t, "dir/export [part 3].html", sink.partitionPath(2))
}
