// Package client implements authenticated access to the upstream chat API:
// token-kind discovery, retry with capped exponential backoff, proactive
// rate-budget accounting from response headers, single-item fetches, and
// lazy cursor-paginated streams of domain entities.
package client

import (
	"net/http"
	"strconv"
	"time"
)

// RateLimitPreference selects which token kinds honor the advertised rate
// budget. It carries two independent bits: respect-for-user and
// respect-for-bot.
type RateLimitPreference int

const (
	// RespectAll honors the budget for both token kinds. Default.
	RespectAll RateLimitPreference = iota
	// RespectUser honors the budget only for user tokens.
	RespectUser
	// RespectBot honors the budget only for bot tokens.
	RespectBot
	// IgnoreAll never waits on the advertised budget.
	IgnoreAll
)

// ParseRateLimitPreference maps a config string to a preference.
func ParseRateLimitPreference(s string) (RateLimitPreference, bool) {
	switch s {
	case "", "respect-all", "RespectAll":
		return RespectAll, true
	case "respect-user", "RespectUser":
		return RespectUser, true
	case "respect-bot", "RespectBot":
		return RespectBot, true
	case "ignore-all", "IgnoreAll":
		return IgnoreAll, true
	}
	return RespectAll, false
}

// IsRespectedFor reports whether the preference honors the budget for the
// given token kind.
func (p RateLimitPreference) IsRespectedFor(kind TokenKind) bool {
	switch p {
	case RespectAll:
		return true
	case RespectUser:
		return kind == TokenKindUser
	case RespectBot:
		return kind == TokenKindBot
	default:
		return false
	}
}

// rateBudget is the per-response (remaining, reset-after) pair the upstream
// advertises.
type rateBudget struct {
	remaining  int
	resetAfter time.Duration
	hasReset   bool
}

// readRateBudget extracts the budget headers from a response. Absent or
// malformed headers leave the corresponding field unset.
func readRateBudget(h http.Header) rateBudget {
	b := rateBudget{remaining: -1}
	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			b.remaining = int(f)
		}
	}
	if v := h.Get("X-RateLimit-Reset-After"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			b.resetAfter = time.Duration(f * float64(time.Second))
			b.hasReset = true
		}
	}
	return b
}

// waitFor returns how long to sleep before the next request to stay inside
// the budget: reset-after plus a one second margin, capped at maxDelay.
// Zero means no wait is needed.
func (b rateBudget) waitFor() time.Duration {
	if b.remaining > 0 || b.remaining < 0 || !b.hasReset {
		return 0
	}
	d := b.resetAfter + time.Second
	if d > maxDelay {
		d = maxDelay
	}
	return d
}
