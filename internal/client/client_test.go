package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-chat-export/internal/discord"
)

// newTestClient spins up a stub upstream and a client authenticated
// against it. The handler runs after the token probe has been answered.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/@me" {
			fmt.Fprint(w, `{"id":"1","username":"me"}`)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), "token", WithBaseURL(srv.URL))
	require.NoError(t, err)
	return c
}

func TestNewResolvesTokenKind(t *testing.T) {
	var sawBot atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "Bot token" {
			sawBot.Store(true)
			fmt.Fprint(w, `{"id":"1"}`)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := New(context.Background(), "token", WithBaseURL(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, TokenKindBot, c.TokenKind())
	assert.True(t, sawBot.Load())
}

func TestNewRejectsInvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(context.Background(), "bad", WithBaseURL(srv.URL))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"id":"9","name":"guild"}`)
	})

	g, err := c.GetGuild(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "guild", g.Name)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTryGetUserSwallowsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	u, err := c.TryGetUser(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestGetMessagesPaginatesAscending(t *testing.T) {
	// Two pages: ids 101..200 then 201..250, served newest-first per page.
	page := func(from, to int) []json.RawMessage {
		var out []json.RawMessage
		for id := to; id >= from; id-- {
			out = append(out, json.RawMessage(fmt.Sprintf(
				`{"id":"%d","type":0,"author":{"id":"1","username":"u"},"timestamp":"2021-01-01T00:00:00Z","content":"m%d"}`, id, id)))
		}
		return out
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after")
		var msgs []json.RawMessage
		switch after {
		case "100":
			msgs = page(101, 200)
		case "200":
			msgs = page(201, 250)
		default:
			msgs = nil
		}
		json.NewEncoder(w).Encode(msgs)
	})

	stream := c.GetMessages(context.Background(), 7, 100, 0, nil)
	msgs, err := stream.Drain(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 150)
	for i := 1; i < len(msgs); i++ {
		assert.Less(t, msgs[i-1].Id, msgs[i].Id, "stream must ascend")
	}
	assert.Equal(t, discord.Snowflake(101), msgs[0].Id)
	assert.Equal(t, discord.Snowflake(250), msgs[len(msgs)-1].Id)
}

func TestGetMessagesHonorsBeforeBound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") == "1" {
			fmt.Fprint(w, `[]`)
			return
		}
		msgs := []json.RawMessage{
			json.RawMessage(`{"id":"30","type":0,"author":{"id":"1","username":"u"},"timestamp":"2021-01-01T00:00:00Z","content":"c"}`),
			json.RawMessage(`{"id":"20","type":0,"author":{"id":"1","username":"u"},"timestamp":"2021-01-01T00:00:00Z","content":"b"}`),
			json.RawMessage(`{"id":"10","type":0,"author":{"id":"1","username":"u"},"timestamp":"2021-01-01T00:00:00Z","content":"a"}`),
		}
		json.NewEncoder(w).Encode(msgs)
	})

	stream := c.GetMessages(context.Background(), 7, 0, 25, nil)
	msgs, err := stream.Drain(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, discord.Snowflake(20), msgs[1].Id)
}

func TestGetMessagesDetectsMissingIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/users/@me":
			if r.Header.Get("Authorization") != "Bot token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			fmt.Fprint(w, `{"id":"1"}`)
		case r.URL.Path == "/applications/@me":
			fmt.Fprint(w, `{"id":"1","flags":0}`)
		default:
			// A full page of contentless ordinary messages.
			var msgs []json.RawMessage
			for id := 100; id > 0; id-- {
				msgs = append(msgs, json.RawMessage(fmt.Sprintf(
					`{"id":"%d","type":0,"author":{"id":"1","username":"u"},"timestamp":"2021-01-01T00:00:00Z","content":""}`, id)))
			}
			json.NewEncoder(w).Encode(msgs)
		}
	}))
	defer srv.Close()

	c, err := New(context.Background(), "token", WithBaseURL(srv.URL))
	require.NoError(t, err)

	stream := c.GetMessages(context.Background(), 7, 0, 0, nil)
	_, _, err = stream.Next(context.Background())
	assert.ErrorIs(t, err, ErrMissingIntent)
}

func TestStreamObservesCancellation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stream := c.GetMessages(ctx, 7, 0, 0, nil)
	_, _, err := stream.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateBudgetHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("X-RateLimit-Remaining", "0")
	h.Set("X-RateLimit-Reset-After", "1.5")
	b := readRateBudget(h)
	assert.Equal(t, 0, b.remaining)
	assert.Equal(t, 2500*time.Millisecond, b.waitFor())

	// Remaining budget means no wait.
	h.Set("X-RateLimit-Remaining", "3")
	assert.Equal(t, time.Duration(0), readRateBudget(h).waitFor())

	// Missing reset header means no wait even at zero remaining.
	h.Set("X-RateLimit-Remaining", "0")
	h.Del("X-RateLimit-Reset-After")
	assert.Equal(t, time.Duration(0), readRateBudget(h).waitFor())
}

func TestBackoffDelayCapped(t *testing.T) {
	for k := 0; k < 12; k++ {
		d := backoffDelay(k)
		if d > maxDelay {
			t.Fatalf("backoffDelay(%d) = %v exceeds cap", k, d)
		}
		if d < baseDelay && k > 0 {
			t.Fatalf("backoffDelay(%d) = %v below base", k, d)
		}
	}
}

func TestRateLimitPreference(t *testing.T) {
	cases := []struct {
		pref RateLimitPreference
		kind TokenKind
		want bool
	}{
		{RespectAll, TokenKindUser, true},
		{RespectAll, TokenKindBot, true},
		{RespectUser, TokenKindUser, true},
		{RespectUser, TokenKindBot, false},
		{RespectBot, TokenKindBot, true},
		{RespectBot, TokenKindUser, false},
		{IgnoreAll, TokenKindUser, false},
		{IgnoreAll, TokenKindBot, false},
	}
	for _, tc := range cases {
		if got := tc.pref.IsRespectedFor(tc.kind); got != tc.want {
			t.Fatalf("pref %v kind %v = %v; want %v", tc.pref, tc.kind, got, tc.want)
		}
	}
}
