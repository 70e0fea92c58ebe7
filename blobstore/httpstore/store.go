// Package httpstore provides a read-only BlobStore over a static web site.
//
// This is the usual deployment: the archive and its index are published as
// plain files and every shard is a GET relative to a base URL. A 404 maps to
// blobstore.ErrNotFound; any other non-2xx status is a *StatusError.
//
// Requests can be throttled with a token bucket so that a burst of long
// queries does not hammer the host.
package httpstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hupe1980/gramsearch/blobstore"
	"golang.org/x/time/rate"
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Options configures a Store.
type Options struct {
	// Client is the HTTP client. Default: http.DefaultClient.
	Client *http.Client

	// RequestsPerSecond limits outgoing requests. 0 disables the limit.
	RequestsPerSecond float64

	// Burst is the token bucket size. Defaults to 1 when a limit is set.
	Burst int

	// UserAgent is sent with every request if set.
	UserAgent string
}

// Store fetches blobs relative to a base URL.
type Store struct {
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
	agent   string
}

// New creates a Store rooted at baseURL.
func New(baseURL string, optFns ...func(*Options)) (*Store, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	opts := Options{Client: http.DefaultClient}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Store{
		base:   u,
		client: opts.Client,
		agent:  opts.UserAgent,
	}
	if s.client == nil {
		s.client = http.DefaultClient
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return s, nil
}

// URL returns the absolute URL of a blob.
func (s *Store) URL(name string) string {
	return s.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(name, "/")}).String()
}

// Open fetches the blob and serves it from memory.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	data, err := s.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return blobstore.NewMemoryBlob(data), nil
}

// Fetch issues one GET for name.
func (s *Store) Fetch(ctx context.Context, name string) ([]byte, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	target := s.URL(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if s.agent != "" {
		req.Header.Set("User-Agent", s.agent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, blobstore.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}
	return data, nil
}
