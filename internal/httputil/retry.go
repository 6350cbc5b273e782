// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for talking to arXiv.
package httputil

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryBaseDelay is the first backoff step when the server gives no
// Retry-After hint. Tests override it to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

// MaxRetryAfter caps a server supplied Retry-After delay.
var MaxRetryAfter = 2 * time.Minute

const defaultMaxRetries = 5

// Retryable reports whether status is worth retrying. arXiv answers 429
// when throttling and 503 while the export API is busy.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// DoWithRetry executes req and retries retryable responses. The wait is
// the response's Retry-After (in seconds, capped at MaxRetryAfter) when
// present, otherwise RetryBaseDelay doubled on every attempt.
//
// When maxRetries is 0 the default (5) is used. A retried response body is
// drained and closed before waiting. Cancelling ctx during a wait returns
// ctx.Err(). After the last retry the final response is returned so the
// caller can inspect its status.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := backoff(resp.Header.Get("Retry-After"), attempt)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		slog.Debug("retrying request",
			"url", req.URL.String(), "status", resp.StatusCode,
			"wait", wait, "attempt", attempt+1, "max", maxRetries)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func backoff(retryAfter string, attempt int) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs >= 0 {
		return min(time.Duration(secs)*time.Second, MaxRetryAfter)
	}
	return RetryBaseDelay << attempt
}
