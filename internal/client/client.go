package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-chat-export/internal/discord"
)

const defaultBaseURL = "https://discord.com/api/v10"

// TokenKind distinguishes user tokens from bot tokens; the two use
// different Authorization header schemes and rate-limit treatment.
type TokenKind int

const (
	TokenKindUser TokenKind = iota
	TokenKindBot
)

// String names the token kind for logs.
func (k TokenKind) String() string {
	if k == TokenKindBot {
		return "bot"
	}
	return "user"
}

// Client is an authenticated upstream API client. It is safe for use from
// a single export pipeline; pipelines running in parallel each get their
// own instance or share one, as all state mutation happens at construction.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	kind    TokenKind
	pref    RateLimitPreference
	limiter *rate.Limiter
	log     zerolog.Logger

	// application is resolved lazily, only when the missing-intent check
	// needs it.
	application *discord.Application
}

// Option mutates client construction.
type Option func(*Client)

// WithBaseURL overrides the upstream base URL; used by tests.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithRateLimitPreference sets which token kinds honor the advertised
// budget.
func WithRateLimitPreference(p RateLimitPreference) Option {
	return func(c *Client) { c.pref = p }
}

// WithLogger attaches a parent logger.
func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

// New builds a client and resolves the token kind by probing the identity
// endpoint with each authentication scheme; whichever is not rejected with
// 401 wins. Both failing is fatal.
func New(ctx context.Context, token string, opts ...Option) (*Client, error) {
	c := &Client{
		http: &http.Client{
			Transport: &http.Transport{
				DialContext:     (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		baseURL: defaultBaseURL,
		token:   token,
		pref:    RespectAll,
		limiter: rate.NewLimiter(rate.Limit(50), 1),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "client").Logger()

	kind, err := c.resolveTokenKind(ctx)
	if err != nil {
		return nil, err
	}
	c.kind = kind
	c.log.Debug().Str("token_kind", kind.String()).Msg("authenticated")
	return c, nil
}

// TokenKind returns the resolved token kind.
func (c *Client) TokenKind() TokenKind { return c.kind }

func (c *Client) resolveTokenKind(ctx context.Context) (TokenKind, error) {
	for _, kind := range []TokenKind{TokenKindUser, TokenKindBot} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/@me", nil)
		if err != nil {
			return 0, err
		}
		req.Header.Set("Authorization", authHeader(c.token, kind))
		resp, err := c.http.Do(req)
		if err != nil {
			return 0, fmt.Errorf("probing token kind: %w", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			return kind, nil
		}
	}
	return 0, ErrInvalidToken
}

func authHeader(token string, kind TokenKind) string {
	if kind == TokenKindBot {
		return "Bot " + token
	}
	return token
}

// get performs one authenticated GET with the full retry and rate-budget
// policy and returns the response body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	var delayOverride time.Duration
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt - 1)
			if delayOverride > 0 {
				delay = delayOverride
				delayOverride = 0
			}
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", authHeader(c.token, c.kind))

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.log.Warn().Err(err).Int("attempt", attempt+1).Str("path", path).Msg("transport error")
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		// Proactive budget: when the bucket is exhausted, sleep past the
		// advertised reset before issuing the next request.
		if c.pref.IsRespectedFor(c.kind) {
			if wait := readRateBudget(resp.Header).waitFor(); wait > 0 {
				c.log.Debug().Dur("wait", wait).Str("path", path).Msg("rate budget exhausted")
				if err := sleepCtx(ctx, wait); err != nil {
					return nil, err
				}
			}
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if readErr != nil {
				lastErr = readErr
				continue
			}
			return body, nil
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, ErrInvalidToken
		case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s (status %d)", ErrNotFound, path, resp.StatusCode)
		case shouldRetry(resp.StatusCode):
			lastErr = &StatusError{Status: resp.StatusCode, Path: path}
			// An explicit server delay replaces the backoff formula for
			// the next attempt.
			if d := retryAfterDelay(resp.Header); d > 0 {
				c.log.Debug().Dur("retry_after", d).Int("status", resp.StatusCode).Msg("honoring Retry-After")
				delayOverride = d
			}
			continue
		default:
			return nil, &StatusError{Status: resp.StatusCode, Path: path}
		}
	}
	if lastErr == nil {
		lastErr = errors.New("request failed")
	}
	return nil, fmt.Errorf("giving up on %s after %d attempts: %w", path, maxAttempts, lastErr)
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
