package export

import (
	"context"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/tbourn/go-chat-export/internal/assets"
	"github.com/tbourn/go-chat-export/internal/client"
	"github.com/tbourn/go-chat-export/internal/discord"
)

// Context is the per-export cache and resolver. Tier-1 holds directly
// populated members, channels and roles; tier-2 holds values derived
// lazily from tier-1 (per-user sorted roles and display colour).
//
// All writes happen on the orchestrator goroutine, except PopulateMember
// which the pipeline fans out under a bounded group; writers only read,
// and only after the batch's member resolution has completed, so no
// locking is needed beyond the member map's own mutex.
type Context struct {
	client  *client.Client
	request Request
	log     zerolog.Logger

	guild   discord.Guild
	channel discord.Channel

	members  *memberCache
	channels map[discord.Snowflake]discord.Channel
	roles    map[discord.Snowflake]discord.Role

	// tier-2, derived lazily
	userRoles map[discord.Snowflake][]discord.Role
	userColor map[discord.Snowflake]*int

	downloader *assets.Downloader
	outputDir  string
	locale     language.Tag
}

// NewContext builds the resolver for one export pipeline. outputPath is
// the base partition file; relative asset paths are computed against its
// directory.
func NewContext(c *client.Client, req Request, guild discord.Guild, channel discord.Channel, outputPath string, log zerolog.Logger) *Context {
	ctx := &Context{
		client:    c,
		request:   req,
		log:       log.With().Str("component", "context").Logger(),
		guild:     guild,
		channel:   channel,
		members:   newMemberCache(),
		channels:  make(map[discord.Snowflake]discord.Channel),
		roles:     make(map[discord.Snowflake]discord.Role),
		userRoles: make(map[discord.Snowflake][]discord.Role),
		userColor: make(map[discord.Snowflake]*int),
		outputDir: filepath.Dir(outputPath),
		locale:    language.Und,
	}
	if req.Locale != "" {
		if tag, err := language.Parse(req.Locale); err == nil {
			ctx.locale = tag
		} else {
			ctx.log.Warn().Str("locale", req.Locale).Msg("ignoring unparseable locale")
		}
	}
	if req.ShouldDownloadAssets {
		dir := req.AssetsDirPath
		if dir == "" {
			dir = strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + "_Files"
		}
		ctx.downloader = assets.NewDownloader(dir, req.ShouldReuseAssets, log)
	}
	return ctx
}

// Guild returns the guild under export.
func (c *Context) Guild() discord.Guild { return c.guild }

// Channel returns the channel under export.
func (c *Context) Channel() discord.Channel { return c.channel }

// After returns the lower range bound (zero when unbounded).
func (c *Context) After() discord.Snowflake { return c.request.After }

// Before returns the upper range bound (zero when unbounded).
func (c *Context) Before() discord.Snowflake { return c.request.Before }

// FormatMarkdown reports whether writers should parse content as markdown.
func (c *Context) FormatMarkdown() bool { return c.request.ShouldFormatMarkdown }

// PopulateChannelsAndRoles fills tier-1 once at export start.
func (c *Context) PopulateChannelsAndRoles(ctx context.Context) error {
	if c.guild.Id.IsZero() {
		// DM exports have no guild channels or roles to resolve.
		c.channels[c.channel.Id] = c.channel
		return nil
	}
	channels, err := c.client.GetGuildChannels(ctx, c.guild.Id).Drain(ctx)
	if err != nil {
		return err
	}
	for _, ch := range channels {
		c.channels[ch.Id] = ch
	}
	roles, err := c.client.GetGuildRoles(ctx, c.guild.Id).Drain(ctx)
	if err != nil {
		return err
	}
	for _, r := range roles {
		c.roles[r.Id] = r
	}
	c.log.Debug().Int("channels", len(channels)).Int("roles", len(roles)).Msg("populated lookup caches")
	return nil
}

// PopulateMember resolves one member into the cache: cache first, then the
// member endpoint, then the user endpoint with a synthesized fallback
// member. Negative results are cached too, so each id is fetched at most
// once per export.
func (c *Context) PopulateMember(ctx context.Context, id discord.Snowflake, fallback *discord.User) error {
	if !c.members.claim(id) {
		return nil
	}
	member, err := c.client.TryGetGuildMember(ctx, c.guild.Id, id)
	if err != nil {
		c.members.release(id)
		return err
	}
	if member == nil {
		user := fallback
		if user == nil {
			user, err = c.client.TryGetUser(ctx, id)
			if err != nil {
				c.members.release(id)
				return err
			}
		}
		if user != nil {
			m := discord.MemberFromUser(*user)
			member = &m
		}
	}
	c.members.store(id, member)
	return nil
}

// PopulateMemberFromUser resolves a member for an already-known user.
func (c *Context) PopulateMemberFromUser(ctx context.Context, u discord.User) error {
	return c.PopulateMember(ctx, u.Id, &u)
}

// Member returns the cached member, or nil when the user could not be
// resolved at all.
func (c *Context) Member(id discord.Snowflake) *discord.Member {
	return c.members.get(id)
}

// MemberDisplayName resolves the rendered name for a user: guild nickname,
// then global display name, then username.
func (c *Context) MemberDisplayName(u discord.User) string {
	if m := c.Member(u.Id); m != nil {
		return m.DisplayName()
	}
	return u.DisplayName
}

// ChannelName resolves a channel id for mention rendering.
func (c *Context) ChannelName(id discord.Snowflake) string {
	if ch, ok := c.channels[id]; ok {
		return ch.Name
	}
	return "deleted-channel"
}

// RoleName resolves a role id for mention rendering.
func (c *Context) RoleName(id discord.Snowflake) string {
	if r, ok := c.roles[id]; ok {
		return r.Name
	}
	return "deleted-role"
}

// UserRoles returns the user's roles ordered by position descending,
// derived lazily from tier-1.
func (c *Context) UserRoles(id discord.Snowflake) []discord.Role {
	if roles, ok := c.userRoles[id]; ok {
		return roles
	}
	var roles []discord.Role
	if m := c.Member(id); m != nil {
		for _, rid := range m.RoleIds {
			if r, ok := c.roles[rid]; ok {
				roles = append(roles, r)
			}
		}
		sort.SliceStable(roles, func(i, j int) bool { return roles[i].Position > roles[j].Position })
	}
	c.userRoles[id] = roles
	return roles
}

// UserColor returns the first non-null colour among the user's sorted
// roles, or nil.
func (c *Context) UserColor(id discord.Snowflake) *int {
	if color, ok := c.userColor[id]; ok {
		return color
	}
	var color *int
	for _, r := range c.UserRoles(id) {
		if r.Color != nil {
			color = r.Color
			break
		}
	}
	c.userColor[id] = color
	return color
}

// ReactionUsers fetches the users behind one reaction tally. Failures are
// swallowed: the writer renders the tally without user detail.
func (c *Context) ReactionUsers(ctx context.Context, messageId discord.Snowflake, e discord.Emoji) []discord.User {
	users, err := c.client.GetMessageReactions(ctx, c.channel.Id, messageId, e).Drain(ctx)
	if err != nil {
		c.log.Debug().Err(err).Str("message", messageId.String()).Msg("reaction user fetch failed")
		return nil
	}
	return users
}

// ResolveAssetURL returns the url unchanged when asset download is off;
// otherwise it downloads (or reuses) the asset and returns a filesystem
// path, relative when the asset lives under the output directory and
// absolute otherwise. Failures are swallowed and the original url kept.
func (c *Context) ResolveAssetURL(ctx context.Context, rawURL string) string {
	if c.downloader == nil || rawURL == "" {
		return rawURL
	}
	path, err := c.downloader.Download(ctx, rawURL)
	if err != nil {
		c.log.Debug().Err(err).Str("url", rawURL).Msg("asset download failed, keeping url")
		return rawURL
	}
	if rel, err := filepath.Rel(c.outputDir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return encodePathSegments(filepath.ToSlash(rel))
	}
	return path
}

// encodePathSegments percent-encodes each path segment so HTML output can
// reference files with spaces or reserved characters.
func encodePathSegments(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// layoutFor maps a format code to a time layout; the locale only flips
// day-first ordering, which covers the supported render styles.
func (c *Context) layoutFor(format string) string {
	dayFirst := false
	if region, conf := c.locale.Region(); conf >= language.Low && region.String() != "US" && !c.locale.IsRoot() {
		dayFirst = true
	}
	switch format {
	case "t":
		return "3:04 PM"
	case "T":
		return "3:04:05 PM"
	case "d":
		if dayFirst {
			return "02/01/2006"
		}
		return "01/02/2006"
	case "D":
		return "January 2, 2006"
	case "f", "g", "":
		if dayFirst {
			return "02/01/2006 3:04 PM"
		}
		return "01/02/2006 3:04 PM"
	case "F":
		return "Monday, January 2, 2006 3:04 PM"
	default:
		if dayFirst {
			return "02/01/2006 3:04 PM"
		}
		return "01/02/2006 3:04 PM"
	}
}

// FormatDate renders a timestamp with one of the format codes
// {g,d,t,f,F,R}; R produces a relative description.
func (c *Context) FormatDate(t time.Time, format string) string {
	if c.request.IsUtcNormalizationEnabled {
		t = t.UTC()
	}
	if format == "R" {
		return relativeTime(time.Since(t))
	}
	return t.Format(c.layoutFor(format))
}

// relativeTime renders a coarse "n units ago" description.
func relativeTime(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "a few seconds ago"
	case d < 2*time.Minute:
		return "a minute ago"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 2*time.Hour:
		return "an hour ago"
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	case d < 48*time.Hour:
		return "a day ago"
	case d < 30*24*time.Hour:
		return plural(int(d.Hours()/24), "day")
	case d < 60*24*time.Hour:
		return "a month ago"
	case d < 365*24*time.Hour:
		return plural(int(d.Hours()/(24*30)), "month")
	default:
		return plural(int(d.Hours()/(24*365)), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "a " + unit + " ago"
	}
	return strconv.Itoa(n) + " " + unit + "s ago"
}
