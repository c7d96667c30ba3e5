// CLAUDE:SUMMARY HTTP source-archive downloader: burst semaphore → rate limiter → bounded GET.
// Package fetch downloads paper source archives from the remote repository.
//
// Each fetch acquires a burst-size concurrency slot, then the shared rate
// limiter, then issues the request under its own timeout. No retries are
// performed here; retry policy belongs to the caller.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/arxpipe/arxpipe/pipeline/internal/ratelimit"
)

// ErrDownload is returned for any network or HTTP failure.
var ErrDownload = errors.New("fetch: download failed")

// Sink receives counter increments. Mirrors the pipeline metrics sink so
// this package does not import its parent.
type Sink interface {
	Increment(name string, labels map[string]string)
}

type nopSink struct{}

func (nopSink) Increment(string, map[string]string) {}

// Config configures the Fetcher.
type Config struct {
	// BaseURL is the archive endpoint prefix; the paper id is appended.
	// Default: https://arxiv.org/e-print/
	BaseURL string
	// Timeout bounds a single network call. Default: 60s.
	Timeout time.Duration
	// MaxBytes caps the response body size. Default: 100MB.
	MaxBytes int64
	// BurstSize is the number of simultaneous fetches permitted before
	// callers queue on the internal semaphore. Default: 5.
	BurstSize int64
	// RequestsPerSecond feeds the sliding-window rate limiter. Default: 2.
	RequestsPerSecond float64
	// UserAgent sent with requests.
	UserAgent string
	// Metrics receives download success/error counters.
	Metrics Sink
	// Logger for fetch progress.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://arxiv.org/e-print/"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 100 * 1024 * 1024
	}
	if c.BurstSize <= 0 {
		c.BurstSize = 5
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 2
	}
	if c.UserAgent == "" {
		c.UserAgent = "arxpipe/1.0"
	}
	if c.Metrics == nil {
		c.Metrics = nopSink{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Fetcher downloads source archives with rate limiting.
type Fetcher struct {
	client  *http.Client
	limiter *ratelimit.Limiter
	burst   *semaphore.Weighted
	config  Config
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	return &Fetcher{
		client:  &http.Client{},
		limiter: ratelimit.New(cfg.RequestsPerSecond),
		burst:   semaphore.NewWeighted(cfg.BurstSize),
		config:  cfg,
	}
}

// Fetch downloads the source archive for id. The rate-limiter window is
// only touched while a burst slot is held.
func (f *Fetcher) Fetch(ctx context.Context, id string) ([]byte, error) {
	if err := f.burst.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer f.burst.Release(1)

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}

	url := f.config.BaseURL + id
	f.config.Logger.Info("downloading source archive", "id", id, "url", url)

	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		f.count(id, "error")
		return nil, fmt.Errorf("%w: new request: %v", ErrDownload, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.count(id, "error")
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.count(id, "error")
		return nil, fmt.Errorf("%w: http %d for %s", ErrDownload, resp.StatusCode, id)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes))
	if err != nil {
		f.count(id, "error")
		return nil, fmt.Errorf("%w: read body: %v", ErrDownload, err)
	}

	f.count(id, "success")
	f.config.Logger.Info("downloaded source archive", "id", id, "bytes", len(body))
	return body, nil
}

func (f *Fetcher) count(id, status string) {
	f.config.Metrics.Increment("downloads", map[string]string{"id": id, "status": status})
}
