package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	logx "storewatch/pkg/logx"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 10 << 20
	defaultUserAgent    = "storewatch/1"
)

// Config describes the catalog endpoint.
//
// Timeout bounds the whole request (0 uses the default). Headers are sent
// verbatim. MaxBodyBytes caps how much of the response is read.
type Config struct {
	URL          string
	Timeout      time.Duration
	UserAgent    string
	Headers      map[string]string
	Keys         Keys
	MaxBodyBytes int64
}

// Fetcher retrieves the current catalog with a single GET per call.
// It never retries.
type Fetcher struct {
	cfg    Config
	client *http.Client
	log    logx.Logger
}

// NewFetcher validates cfg. A nil client gets a fresh one with cfg.Timeout.
func NewFetcher(cfg Config, client *http.Client, log logx.Logger) (*Fetcher, error) {
	u := strings.TrimSpace(cfg.URL)
	if u == "" {
		return nil, errors.New("catalog url is empty")
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return nil, fmt.Errorf("catalog url %q must be http(s)", u)
	}
	cfg.URL = u
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	cfg.Keys = cfg.Keys.withDefaults()
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Fetcher{cfg: cfg, client: client, log: log}, nil
}

// Fetch performs one request and decodes the body into a Collection.
func (f *Fetcher) Fetch(ctx context.Context) (Collection, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, http.NoBody)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	for k, v := range f.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &FetchError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return nil, &ParseError{Err: fmt.Errorf("response exceeds %d bytes", f.cfg.MaxBodyBytes)}
	}

	items, err := DecodeCollection(body, f.cfg.Keys)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	f.log.Debug("catalog fetched",
		logx.Int("items", len(items)),
		logx.Int("bytes", len(body)),
		logx.Duration("took", time.Since(start)),
	)
	return items, nil
}
