package export

import (
	"sync"

	"github.com/tbourn/go-chat-export/internal/discord"
)

// memberCache is the only tier-1 map written concurrently: the pipeline
// resolves a batch's referenced users under a bounded group. claim marks
// an id as owned by one goroutine so every id is fetched at most once,
// including negative results (stored as nil).
type memberCache struct {
	mu      sync.Mutex
	members map[discord.Snowflake]*discord.Member
	claimed map[discord.Snowflake]bool
}

func newMemberCache() *memberCache {
	return &memberCache{
		members: make(map[discord.Snowflake]*discord.Member),
		claimed: make(map[discord.Snowflake]bool),
	}
}

// claim reports whether the caller now owns resolution of id. A false
// return means the id is already resolved or being resolved.
func (c *memberCache) claim(id discord.Snowflake) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.claimed[id] {
		return false
	}
	c.claimed[id] = true
	return true
}

// release returns a claim after a failed resolution so a later batch can
// retry.
func (c *memberCache) release(id discord.Snowflake) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.claimed, id)
}

// store records the resolution outcome; nil means the user no longer
// exists anywhere.
func (c *memberCache) store(id discord.Snowflake, m *discord.Member) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.members[id] = m
}

func (c *memberCache) get(id discord.Snowflake) *discord.Member {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.members[id]
}
