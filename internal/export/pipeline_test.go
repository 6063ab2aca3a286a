package export

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-chat-export/internal/client"
	"github.com/tbourn/go-chat-export/internal/writers"
)

// newExportTestServer serves a small guild with one text channel holding
// two messages.
func newExportTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}

	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"id":"1","username":"tester","discriminator":"0"}`)
	})
	mux.HandleFunc("/channels/200", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"id":"200","type":0,"guild_id":"50","name":"general","last_message_id":"301"}`)
	})
	mux.HandleFunc("/channels/300", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"id":"300","type":15,"guild_id":"50","name":"forum"}`)
	})
	mux.HandleFunc("/channels/400", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"id":"400","type":0,"guild_id":"50","name":"silent"}`)
	})
	mux.HandleFunc("/guilds/50", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"id":"50","name":"Server"}`)
	})
	mux.HandleFunc("/guilds/50/channels", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"id":"200","type":0,"guild_id":"50","name":"general","last_message_id":"301"}]`)
	})
	mux.HandleFunc("/guilds/50/roles", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"id":"70","name":"admins","color":16711680,"position":5}]`)
	})
	mux.HandleFunc("/guilds/50/members/9", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"user":{"id":"9","username":"alice","discriminator":"0"},"nick":"Ali","roles":["70"]}`)
	})
	mux.HandleFunc("/channels/200/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("after") != "0" {
			writeJSON(w, `[]`)
			return
		}
		// Newest first, as on the wire.
		writeJSON(w, `[
			{"id":"301","type":0,"content":"second message","timestamp":"2021-06-01T12:01:00Z","author":{"id":"9","username":"alice","discriminator":"0"}},
			{"id":"300","type":0,"content":"first message","timestamp":"2021-06-01T12:00:00Z","author":{"id":"9","username":"alice","discriminator":"0"}}
		]`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()
	srv := newExportTestServer(t)
	c, err := client.New(context.Background(), "token",
		client.WithBaseURL(srv.URL),
		client.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	return NewExporter(c, zerolog.Nop())
}

func TestExportChannelEndToEnd(t *testing.T) {
	exporter := newTestExporter(t)
	out := filepath.Join(t.TempDir(), "general.txt")

	err := exporter.ExportChannel(context.Background(), Request{
		ChannelId:  200,
		Format:     writers.FormatPlainText,
		OutputPath: out,
	}, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "first message")
	assert.Contains(t, text, "second message")
	assert.Contains(t, text, "Exported 2 message(s)")
	// The resolved guild nickname is used, not the raw username.
	assert.Contains(t, text, "] Ali")
}

func TestExportChannelFilterExcludesEverything(t *testing.T) {
	exporter := newTestExporter(t)
	out := filepath.Join(t.TempDir(), "filtered.txt")

	err := exporter.ExportChannel(context.Background(), Request{
		ChannelId:  200,
		Format:     writers.FormatPlainText,
		OutputPath: out,
		Filter:     "from:bob",
	}, nil)
	require.ErrorIs(t, err, ErrChannelEmpty)
	assert.False(t, IsFatal(err))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Exported 0 message(s)")
}

func TestExportChannelForumIsFatal(t *testing.T) {
	exporter := newTestExporter(t)
	err := exporter.ExportChannel(context.Background(), Request{
		ChannelId:  300,
		Format:     writers.FormatPlainText,
		OutputPath: filepath.Join(t.TempDir(), "x.txt"),
	}, nil)
	require.ErrorIs(t, err, ErrUnsupportedChannel)
	assert.True(t, IsFatal(err))
}

func TestExportChannelEmptyChannel(t *testing.T) {
	exporter := newTestExporter(t)
	out := filepath.Join(t.TempDir(), "silent.txt")

	err := exporter.ExportChannel(context.Background(), Request{
		ChannelId:  400,
		Format:     writers.FormatPlainText,
		OutputPath: out,
	}, nil)
	require.ErrorIs(t, err, ErrChannelEmpty)
	assert.False(t, IsFatal(err))

	// The output file exists with preamble and postamble only.
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Exported 0 message(s)")
}

func TestExportChannelInvalidFilterIsFatal(t *testing.T) {
	exporter := newTestExporter(t)
	err := exporter.ExportChannel(context.Background(), Request{
		ChannelId:  200,
		Format:     writers.FormatPlainText,
		OutputPath: filepath.Join(t.TempDir(), "x.txt"),
		Filter:     "(unbalanced",
	}, nil)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestResolveOutputPathVariants(t *testing.T) {
	guild, channel := templateFixtures()

	// Empty output selects the default name.
	req := Request{Format: writers.FormatJson}
	assert.Equal(t, "My Server - Info - general [200].json", resolveOutputPath(req, guild, channel))

	// A directory gets the default name appended.
	dir := t.TempDir()
	req = Request{Format: writers.FormatCsv, OutputPath: dir}
	assert.Equal(t, filepath.Join(dir, "My Server - Info - general [200].csv"), resolveOutputPath(req, guild, channel))

	// Templates expand.
	req = Request{Format: writers.FormatPlainText, OutputPath: "%G-%C.txt"}
	assert.Equal(t, "My Server-general.txt", resolveOutputPath(req, guild, channel))
}
