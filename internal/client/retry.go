package client

import (
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

const (
	// maxAttempts bounds retries per request.
	maxAttempts = 5
	// baseDelay seeds the exponential backoff.
	baseDelay = time.Second
	// maxDelay caps every computed wait, backoff and budget alike.
	maxDelay = 60 * time.Second
)

// shouldRetry reports whether a response status warrants another attempt:
// request timeout, rate limit, or any server error.
func shouldRetry(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		(status >= 500 && status < 600)
}

// backoffDelay computes the wait before attempt k (0-based):
// min(maxDelay, baseDelay*2^k + jitter in [0,1s)).
func backoffDelay(k int) time.Duration {
	d := baseDelay << uint(k)
	if d > maxDelay || d <= 0 {
		d = maxDelay
	}
	d += time.Duration(rand.Int63n(int64(time.Second)))
	if d > maxDelay {
		d = maxDelay
	}
	return d
}

// retryAfterDelay reads a Retry-After header, in seconds. It overrides the
// backoff formula when present, capped at maxDelay. Returns zero when the
// header is absent or malformed.
func retryAfterDelay(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0
	}
	d := time.Duration(f * float64(time.Second))
	if d > maxDelay {
		d = maxDelay
	}
	return d
}
