// Package server is the development HTTP server: it serves a generated
// archive from disk, answers search requests against the index and exposes
// metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/hupe1980/gramsearch"
	"github.com/hupe1980/gramsearch/search"
)

// Searcher is the part of *gramsearch.Engine the server uses.
type Searcher interface {
	Search(ctx context.Context, query string) (*search.Result, error)
	Hits(res *search.Result, limit int) []gramsearch.Hit
}

// Options configures a Server.
type Options struct {
	// Addr is the listen address.
	Addr string

	// Htdocs is the directory served for every path not handled otherwise.
	Htdocs string

	// ProxyTarget, if set, receives /files/ and /emojis/ requests, which are
	// not part of a locally generated archive.
	ProxyTarget string

	// DefaultLimit caps the hits of a search without a limit parameter.
	// 0 means unlimited.
	DefaultLimit int

	// Location is used to render links. Default: time.Local.
	Location *time.Location

	// Metrics is mounted at /metrics if set.
	Metrics http.Handler

	Logger *slog.Logger
}

// Server serves the archive and the search API.
type Server struct {
	engine Searcher
	opts   Options
	logger *slog.Logger
}

// New creates a Server.
func New(engine Searcher, optFns ...func(*Options)) *Server {
	opts := Options{
		Addr:     "127.0.0.1:8080",
		Htdocs:   ".",
		Location: time.Local,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	s := &Server{engine: engine, opts: opts, logger: opts.Logger}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Handler returns the root handler with middlewares applied.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/search", s.handleSearch)
	if s.opts.Metrics != nil {
		mux.Handle("GET /metrics", s.opts.Metrics)
	}
	if s.opts.ProxyTarget != "" {
		proxy, err := newReverseProxy(s.opts.ProxyTarget)
		if err != nil {
			return nil, err
		}
		mux.Handle("/files/", proxy)
		mux.Handle("/emojis/", proxy)
	}
	mux.Handle("/", http.FileServer(http.Dir(s.opts.Htdocs)))

	return Chain(mux,
		s.recoveryMiddleware,
		s.requestIDMiddleware,
		s.loggingMiddleware,
	), nil
}

func newReverseProxy(target string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy target: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy target %q", target)
	}
	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(u)
		},
	}, nil
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	h, err := s.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.opts.Addr, "htdocs", s.opts.Htdocs)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
