package postlabel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DownloadOpts configures an image download.
type DownloadOpts struct {
	MaxBytes  int64         // max response body size (default: cfg.MaxImageBytes)
	MinBytes  int           // reject if smaller (default: 0)
	Timeout   time.Duration // per-request timeout (default: cfg.ImageTimeout)
	UserAgent string        // override config user agent
}

const (
	defaultMaxBytes = 5 * 1024 * 1024 // 5MB
	defaultTimeout  = 10 * time.Second
)

// ErrNotImage is returned when the response is not an image/* payload.
var ErrNotImage = errors.New("postlabel: not an image")

// DownloadResult holds downloaded image data.
type DownloadResult struct {
	Data     []byte
	MIMEType string
}

// Download fetches the image at url with cfg.HTTPClient. Every failure,
// including a timeout, a non-200 status, a non-image content type or a short
// body, is returned as an error.
func (cfg *Config) Download(ctx context.Context, url string, opts DownloadOpts) (*DownloadResult, error) {
	cfg = cfg.withDefaults()

	if opts.MaxBytes <= 0 {
		opts.MaxBytes = cfg.MaxImageBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = cfg.ImageTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = cfg.UserAgent
	}

	return fetchImageData(ctx, cfg.HTTPClient, url, opts)
}

func fetchImageData(ctx context.Context, client *http.Client, imageURL string, opts DownloadOpts) (*DownloadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", opts.UserAgent)

	resp, err := client.Do(req) //nolint:gosec // G107: image URLs come from post embeds
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	// Strip MIME parameters: "image/jpeg; charset=utf-8" → "image/jpeg"
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	if !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("%w: content type %q", ErrNotImage, ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) < opts.MinBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrEmptyImage, len(data))
	}

	return &DownloadResult{Data: data, MIMEType: ct}, nil
}
