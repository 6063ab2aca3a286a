package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-chat-export/internal/client"
	"github.com/tbourn/go-chat-export/internal/discord"
	"github.com/tbourn/go-chat-export/internal/filter"
)

const (
	// batchSize bounds how many messages are buffered between member
	// resolution and writing.
	batchSize = 50
	// memberParallelism bounds in-flight member look-ups per batch.
	memberParallelism = 10
)

// Exporter runs export pipelines against one API client. It is safe to
// run multiple ExportChannel calls concurrently; each pipeline owns its
// context and sink.
type Exporter struct {
	client *client.Client
	log    zerolog.Logger
}

// NewExporter builds an exporter over an authenticated client.
func NewExporter(c *client.Client, log zerolog.Logger) *Exporter {
	return &Exporter{client: c, log: log}
}

// ExportChannel exports one channel to the request's output path. The
// returned error is classified: IsFatal reports whether the whole job
// should stop rather than move on to the next channel.
func (e *Exporter) ExportChannel(ctx context.Context, req Request, onProgress client.ProgressFunc) error {
	req = req.normalized()
	log := e.log.With().
		Str("run", uuid.NewString()).
		Str("channel", req.ChannelId.String()).
		Logger()

	flt, err := filter.Parse(req.Filter)
	if err != nil {
		return fatal(fmt.Errorf("invalid message filter: %w", err))
	}

	channel, err := e.client.GetChannel(ctx, req.ChannelId)
	if err != nil {
		return fatal(err)
	}
	if channel.Kind == discord.ChannelKindForum {
		return fatal(fmt.Errorf("%w: forum channels hold threads, export those instead", ErrUnsupportedChannel))
	}

	guild := discord.DirectMessages
	if !channel.GuildId.IsZero() {
		guild, err = e.client.GetGuild(ctx, channel.GuildId)
		if err != nil {
			return fatal(err)
		}
	}

	outputPath := resolveOutputPath(req, guild, channel)
	log.Info().
		Str("guild", guild.Name).
		Str("name", channel.HierarchicalName()).
		Str("output", outputPath).
		Msg("starting export")

	exportCtx := NewContext(e.client, req, guild, channel, outputPath, log)
	if err := exportCtx.PopulateChannelsAndRoles(ctx); err != nil {
		return fatal(err)
	}

	sink := NewPartitionedSink(exportCtx, req.Format, outputPath, req.PartitionLimit)

	// Cheap pre-check: no file access happens when the range is provably
	// empty, but the output file is still produced.
	if channel.IsEmpty() || (!req.After.IsZero() && !channel.MayHaveMessagesAfter(req.After)) {
		if err := sink.Close(ctx); err != nil {
			return fatal(err)
		}
		return nonFatal(ErrChannelEmpty)
	}

	stream := e.client.GetMessages(ctx, req.ChannelId, req.After, req.Before, onProgress)
	batch := make([]discord.Message, 0, batchSize)
	for {
		m, ok, err := stream.Next(ctx)
		if err != nil {
			if closeErr := sink.Close(ctx); closeErr != nil {
				log.Warn().Err(closeErr).Msg("closing sink after stream failure")
			}
			return fatal(err)
		}
		if !ok {
			break
		}
		batch = append(batch, m)
		if len(batch) < batchSize {
			continue
		}
		if err := e.processBatch(ctx, exportCtx, sink, flt, guild, channel, batch); err != nil {
			sink.Close(ctx)
			return err
		}
		batch = batch[:0]
	}
	if len(batch) > 0 {
		if err := e.processBatch(ctx, exportCtx, sink, flt, guild, channel, batch); err != nil {
			sink.Close(ctx)
			return err
		}
	}

	if err := sink.Close(ctx); err != nil {
		return fatal(err)
	}
	log.Info().Int("messages", sink.MessagesWritten()).Msg("export finished")
	if sink.MessagesWritten() == 0 {
		return nonFatal(ErrChannelEmpty)
	}
	return nil
}

// processBatch resolves every user the batch references, then filters and
// writes the messages in order. Resolution completes before the first
// write so the writers see a stable cache.
func (e *Exporter) processBatch(ctx context.Context, exportCtx *Context, sink *PartitionedSink, flt filter.Filter, guild discord.Guild, channel discord.Channel, batch []discord.Message) error {
	referenced := make(map[discord.Snowflake]discord.User)
	for _, m := range batch {
		for _, u := range m.GetReferencedUsers() {
			if _, ok := referenced[u.Id]; !ok {
				referenced[u.Id] = u
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(memberParallelism)
	for _, u := range referenced {
		user := u
		g.Go(func() error {
			return exportCtx.PopulateMemberFromUser(gctx, user)
		})
	}
	if err := g.Wait(); err != nil {
		return fatal(err)
	}

	for _, m := range batch {
		if !flt.Matches(m) {
			continue
		}
		if err := sink.WriteMessage(ctx, m); err != nil {
			return wrapMessageError(err, guild, channel, m.Id)
		}
	}
	return nil
}

// resolveOutputPath turns the request's output setting into a concrete
// file path: empty means the default name in the working directory, a
// directory means the default name inside it, anything else is expanded
// as a path template.
func resolveOutputPath(req Request, guild discord.Guild, channel discord.Channel) string {
	defaultName := DefaultFileName(guild, channel, req.After, req.Before, req.Format.Ext())
	if req.OutputPath == "" {
		return defaultName
	}
	expanded := ExpandPathTemplate(req.OutputPath, guild, channel, req.After, req.Before)
	if isDirectoryPath(expanded) {
		return filepath.Join(expanded, defaultName)
	}
	return expanded
}

func isDirectoryPath(p string) bool {
	if len(p) > 0 && (p[len(p)-1] == '/' || p[len(p)-1] == os.PathSeparator) {
		return true
	}
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
