package postlabel

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// leveledSlog adapts slog to retryablehttp.LeveledLogger.
type leveledSlog struct {
	inner *slog.Logger
}

// Error is demoted to WARN: the request is usually retried.
func (l leveledSlog) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Info(msg string, keysAndValues ...any) {
	l.inner.Info(msg, keysAndValues...)
}

func (l leveledSlog) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}

// HTTPOption customizes NewHTTPClient.
type HTTPOption func(*retryablehttp.Client)

// WithMaxRetries sets the maximum number of retries.
func WithMaxRetries(n int) HTTPOption {
	return func(c *retryablehttp.Client) {
		c.RetryMax = n
	}
}

// WithRetryWait sets the minimum and maximum wait between retries.
func WithRetryWait(minWait, maxWait time.Duration) HTTPOption {
	return func(c *retryablehttp.Client) {
		c.RetryWaitMin = minWait
		c.RetryWaitMax = maxWait
	}
}

// WithTransport replaces the pooled transport.
func WithTransport(t http.RoundTripper) HTTPOption {
	return func(c *retryablehttp.Client) {
		c.HTTPClient.Transport = t
	}
}

// NewHTTPClient returns a stdlib *http.Client that retries connection errors
// and 5xx responses (except 501) with backoff. 429 is not retried.
func NewHTTPClient(opts ...HTTPOption) *http.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient.Transport = cleanhttp.DefaultPooledTransport()
	rc.RetryMax = 2
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = retryablehttp.LeveledLogger(leveledSlog{inner: slog.Default().With("subsystem", "http")})
	rc.CheckRetry = retryPolicy

	for _, opt := range opts {
		opt(rc)
	}

	client := rc.StandardClient()
	client.Timeout = 30 * time.Second
	return client
}

func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}
