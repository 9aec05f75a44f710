// Package fetch downloads source recordings with a bounded timeout.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/video-stream/recap/internal/failure"
	"github.com/video-stream/recap/internal/logger"
	"github.com/video-stream/recap/internal/media"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxBytes = 200 << 20
)

// Options configures a Fetcher. Zero values take the defaults.
type Options struct {
	Timeout  time.Duration
	MaxBytes int64
	Client   *http.Client
}

// Fetcher retrieves a video over HTTP(S). It holds no per-call state and is
// safe for concurrent use.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	return &Fetcher{client: opts.Client, timeout: opts.Timeout, maxBytes: opts.MaxBytes}
}

// Timeout returns the per-fetch time limit.
func (f *Fetcher) Timeout() time.Duration { return f.timeout }

// ParseURL checks that raw is an absolute http(s) URL with a host.
func ParseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, failure.InvalidInput("Video URL is required")
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" {
		return nil, failure.InvalidInput("Invalid video URL format")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, failure.InvalidInput("Invalid video URL format")
	}
	return u, nil
}

// Fetch downloads rawURL into a video blob owned by the caller.
//
// If ctx ends before the download completes, ctx.Err() is returned as is;
// the fetcher's own timeout is reported as an upstream failure.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*media.Blob, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx).WithField("host", u.Host)
	start := time.Now()

	fctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, failure.Wrap(failure.KindInvalidInput, err, "Invalid video URL format")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.classify(ctx, fctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		fe := failure.Newf(failure.KindUpstream, "video download returned status %d", resp.StatusCode)
		fe.Status = resp.StatusCode
		return nil, fe
	}

	if resp.ContentLength > f.maxBytes {
		return nil, failure.Newf(failure.KindUpstream, "video is larger than %d bytes", f.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, f.classify(ctx, fctx, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, failure.Newf(failure.KindUpstream, "video is larger than %d bytes", f.maxBytes)
	}
	if len(data) == 0 {
		return nil, failure.New(failure.KindEmptyResult, "video download returned no data")
	}

	log.WithFields(logrus.Fields{
		"bytes":       len(data),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("video downloaded")

	return media.NewBlob(media.KindVideo, resp.Header.Get("Content-Type"), data).WithSource(u.Path), nil
}

func (f *Fetcher) classify(parent, fctx context.Context, err error) error {
	if perr := parent.Err(); perr != nil {
		return perr
	}
	if errors.Is(fctx.Err(), context.DeadlineExceeded) {
		return failure.Wrap(failure.KindUpstream, err, fmt.Sprintf("video download timed out after %s", f.timeout))
	}
	return failure.Wrap(failure.KindUpstream, err, "video download failed")
}
