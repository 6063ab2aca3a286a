package export

import (
	"github.com/tbourn/go-chat-export/internal/discord"
	"github.com/tbourn/go-chat-export/internal/writers"
)

// Request describes one channel export. OutputPath and AssetsDirPath may
// contain %-template codes (see ExpandPathTemplate); an empty OutputPath
// selects the default file naming convention in the current directory.
type Request struct {
	ChannelId discord.Snowflake
	Format    writers.Format

	After  discord.Snowflake
	Before discord.Snowflake

	OutputPath     string
	PartitionLimit PartitionLimit
	Filter         string

	ShouldFormatMarkdown      bool
	ShouldDownloadAssets      bool
	ShouldReuseAssets         bool
	AssetsDirPath             string
	Locale                    string
	IsUtcNormalizationEnabled bool
}

// normalized fills defaults the rest of the pipeline relies on.
func (r Request) normalized() Request {
	if r.PartitionLimit == nil {
		r.PartitionLimit = NullLimit
	}
	return r
}
