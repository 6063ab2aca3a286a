// chatexport exports chat history from channels into portable files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-chat-export/internal/client"
	"github.com/tbourn/go-chat-export/internal/config"
	"github.com/tbourn/go-chat-export/internal/discord"
	"github.com/tbourn/go-chat-export/internal/export"
	"github.com/tbourn/go-chat-export/internal/writers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(cfg, log)
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var out = zerolog.ConsoleWriter{Out: os.Stderr}
	if !cfg.LogPretty {
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func newRootCmd(cfg config.Config, log zerolog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "chatexport",
		Short:         "Export chat history to plaintext, HTML, CSV, or JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "authentication token")
	root.PersistentFlags().StringVar(&cfg.RateLimitPreference, "rate-limit", cfg.RateLimitPreference, "rate limit preference: respect-all, respect-user, respect-bot, ignore-all")

	root.AddCommand(newGuildsCmd(&cfg, log))
	root.AddCommand(newChannelsCmd(&cfg, log))
	root.AddCommand(newExportCmd(&cfg, log))
	return root
}

func connect(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*client.Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("no token given: set DISCORD_TOKEN or pass --token")
	}
	pref, _ := client.ParseRateLimitPreference(cfg.RateLimitPreference)
	return client.New(ctx, cfg.Token,
		client.WithRateLimitPreference(pref),
		client.WithLogger(log),
	)
}

func newGuildsCmd(cfg *config.Config, log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "guilds",
		Short: "List servers visible to the token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := connect(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			guilds, err := c.GetUserGuilds(cmd.Context()).Drain(cmd.Context())
			if err != nil {
				return err
			}
			for _, g := range guilds {
				fmt.Fprintf(cmd.OutOrStdout(), "%s | %s\n", g.Id, g.Name)
			}
			return nil
		},
	}
}

func newChannelsCmd(cfg *config.Config, log zerolog.Logger) *cobra.Command {
	var includeThreads bool
	cmd := &cobra.Command{
		Use:   "channels <guild-id>",
		Short: "List channels in a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guildId, err := discord.ParseSnowflake(args[0])
			if err != nil {
				return err
			}
			c, err := connect(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			channels, err := c.GetGuildChannels(cmd.Context(), guildId).Drain(cmd.Context())
			if err != nil {
				return err
			}
			for _, ch := range channels {
				if ch.Kind == discord.ChannelKindCategory {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s | %s\n", ch.Id, ch.HierarchicalName())
			}
			if includeThreads {
				threads, err := c.GetGuildThreads(cmd.Context(), guildId, channels, true).Drain(cmd.Context())
				if err != nil {
					return err
				}
				for _, th := range threads {
					fmt.Fprintf(cmd.OutOrStdout(), "%s | %s\n", th.Id, th.HierarchicalName())
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeThreads, "include-threads", false, "also list threads, including archived ones")
	return cmd
}

func newExportCmd(cfg *config.Config, log zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <channel-id>...",
		Short: "Export one or more channels",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, cfg, log, args)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Format, "format", cfg.Format, "output format: plaintext, htmldark, htmllight, csv, json")
	f.StringVar(&cfg.After, "after", cfg.After, "only messages after this date or snowflake")
	f.StringVar(&cfg.Before, "before", cfg.Before, "only messages before this date or snowflake")
	f.StringVarP(&cfg.OutputPath, "output", "o", cfg.OutputPath, "output file, directory, or %-template")
	f.StringVar(&cfg.PartitionLimit, "partition", cfg.PartitionLimit, "split output after a message count (\"1000\") or byte size (\"10mb\")")
	f.StringVar(&cfg.MessageFilter, "filter", cfg.MessageFilter, "only messages matching this filter expression")
	f.BoolVar(&cfg.ShouldFormatMarkdown, "markdown", cfg.ShouldFormatMarkdown, "process markdown in message content")
	f.BoolVar(&cfg.ShouldDownloadAssets, "media", cfg.ShouldDownloadAssets, "download referenced media")
	f.BoolVar(&cfg.ShouldReuseAssets, "reuse-media", cfg.ShouldReuseAssets, "reuse previously downloaded media")
	f.StringVar(&cfg.AssetsDirPath, "media-dir", cfg.AssetsDirPath, "directory for downloaded media")
	f.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for date formatting")
	f.BoolVar(&cfg.IsUtcNormalizationEnabled, "utc", cfg.IsUtcNormalizationEnabled, "normalize dates to UTC")
	f.IntVar(&cfg.Parallelism, "parallel", cfg.Parallelism, "channels exported concurrently")
	return cmd
}

func runExport(cmd *cobra.Command, cfg *config.Config, log zerolog.Logger, args []string) error {
	ctx := cmd.Context()

	channelIds := make([]discord.Snowflake, 0, len(args))
	for _, arg := range args {
		id, err := discord.ParseSnowflake(arg)
		if err != nil {
			return fmt.Errorf("invalid channel id %q: %w", arg, err)
		}
		channelIds = append(channelIds, id)
	}

	format, err := writers.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	limit, err := export.ParsePartitionLimit(cfg.PartitionLimit)
	if err != nil {
		return err
	}
	var after, before discord.Snowflake
	if cfg.After != "" {
		if after, err = discord.ParseSnowflake(cfg.After); err != nil {
			return fmt.Errorf("invalid after bound %q: %w", cfg.After, err)
		}
	}
	if cfg.Before != "" {
		if before, err = discord.ParseSnowflake(cfg.Before); err != nil {
			return fmt.Errorf("invalid before bound %q: %w", cfg.Before, err)
		}
	}

	c, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	exporter := export.NewExporter(c, log)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallelism)
	for _, id := range channelIds {
		channelId := id
		g.Go(func() error {
			req := export.Request{
				ChannelId:                 channelId,
				Format:                    format,
				After:                     after,
				Before:                    before,
				OutputPath:                cfg.OutputPath,
				PartitionLimit:            limit,
				Filter:                    cfg.MessageFilter,
				ShouldFormatMarkdown:      cfg.ShouldFormatMarkdown,
				ShouldDownloadAssets:      cfg.ShouldDownloadAssets,
				ShouldReuseAssets:         cfg.ShouldReuseAssets,
				AssetsDirPath:             cfg.AssetsDirPath,
				Locale:                    cfg.Locale,
				IsUtcNormalizationEnabled: cfg.IsUtcNormalizationEnabled,
			}
			err := exporter.ExportChannel(gctx, req, nil)
			if err != nil && !export.IsFatal(err) {
				log.Warn().Err(err).Str("channel", channelId.String()).Msg("channel skipped")
				return nil
			}
			return err
		})
	}
	return g.Wait()
}
