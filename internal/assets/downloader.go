// Package assets downloads referenced media (avatars, attachments, emoji
// images) next to the export output so the rendered file keeps working
// offline. Failures are reported to the caller, who falls back to the
// original remote url.
package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const downloadTimeout = 60 * time.Second

// Downloader fetches remote assets into a directory, deduplicating by url
// within one export run and optionally reusing files left by previous
// runs.
type Downloader struct {
	dir    string
	reuse  bool
	client *http.Client
	// mild pacing so asset fetches do not starve the API budget
	limiter *rate.Limiter
	log     zerolog.Logger

	mu    sync.Mutex
	paths map[string]string
}

// NewDownloader builds a downloader rooted at dir. When reuse is set,
// files already present under dir are kept instead of re-downloaded.
func NewDownloader(dir string, reuse bool, log zerolog.Logger) *Downloader {
	return &Downloader{
		dir:     dir,
		reuse:   reuse,
		client:  &http.Client{Timeout: downloadTimeout},
		limiter: rate.NewLimiter(rate.Limit(10), 1),
		log:     log.With().Str("component", "assets").Logger(),
		paths:   make(map[string]string),
	}
}

// Download fetches rawURL into the asset directory and returns the local
// path. Repeated calls with the same url return the first result without
// refetching.
func (d *Downloader) Download(ctx context.Context, rawURL string) (string, error) {
	d.mu.Lock()
	if p, ok := d.paths[rawURL]; ok {
		d.mu.Unlock()
		return p, nil
	}
	d.mu.Unlock()

	dest := filepath.Join(d.dir, fileNameFor(rawURL))
	if d.reuse {
		if _, err := os.Stat(dest); err == nil {
			d.remember(rawURL, dest)
			return dest, nil
		}
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("asset fetch returned %d for %s", resp.StatusCode, rawURL)
	}

	// Write through a temp file so a partial download is never reused.
	tmp, err := os.CreateTemp(d.dir, ".partial-*")
	if err != nil {
		return "", err
	}
	_, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmp.Name())
		if copyErr != nil {
			return "", copyErr
		}
		return "", closeErr
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	d.log.Debug().Str("url", rawURL).Str("path", dest).Msg("downloaded asset")
	d.remember(rawURL, dest)
	return dest, nil
}

func (d *Downloader) remember(rawURL, dest string) {
	d.mu.Lock()
	d.paths[rawURL] = dest
	d.mu.Unlock()
}

// fileNameFor derives a stable name from the url: a short hash prefix
// keeps distinct urls with the same base name apart, and the original
// name keeps the directory browsable.
func fileNameFor(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	prefix := hex.EncodeToString(sum[:5])

	base := "asset"
	if u, err := url.Parse(rawURL); err == nil {
		if b := path.Base(u.Path); b != "" && b != "/" && b != "." {
			if decoded, err := url.PathUnescape(b); err == nil {
				b = decoded
			}
			base = b
		}
	}
	base = sanitizeFileName(base)
	const maxBase = 80
	if len(base) > maxBase {
		ext := path.Ext(base)
		base = base[:maxBase-len(ext)] + ext
	}
	return prefix + "-" + base
}

func sanitizeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`\/:*?"<>|`, r) {
			return '_'
		}
		return r
	}, s)
}
