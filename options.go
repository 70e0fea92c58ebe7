package gramsearch

import (
	"log/slog"
	"path"
	"time"

	"github.com/hupe1980/gramsearch/shard"
	"github.com/hupe1980/gramsearch/tokenizer"
)

type options struct {
	gramSize         int
	prefix           string
	parser           tokenizer.Parser
	fetchConcurrency int
	fetchTimeout     time.Duration
	metricsCollector MetricsCollector
	logger           *Logger
}

func defaultOptions() options {
	return options{
		gramSize:         tokenizer.DefaultGramSize,
		prefix:           shard.DefaultPrefix,
		parser:           tokenizer.Identity,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
}

// directoryPath is the channel directory inside the index prefix.
func (o options) directoryPath() string {
	return path.Join(o.prefix, "channel")
}

// Option configures Open.
type Option func(*options)

// WithGramSize sets the number of code points per query chunk.
//
// It must match the longest gram the index was built with. Values <= 0 are
// ignored.
func WithGramSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.gramSize = n
		}
	}
}

// WithIndexPrefix sets the directory that holds the shards and the channel
// directory. Default: "index".
func WithIndexPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithParser sets the query parser applied before tokenization.
// If nil is passed, queries are searched verbatim.
func WithParser(p tokenizer.Parser) Option {
	return func(o *options) {
		if p == nil {
			p = tokenizer.Identity
		}
		o.parser = p
	}
}

// WithFetchConcurrency bounds the number of shards fetched in parallel by a
// single search. 0 means one fetch per gram.
func WithFetchConcurrency(n int) Option {
	return func(o *options) {
		o.fetchConcurrency = n
	}
}

// WithFetchTimeout bounds a single shard fetch. 0 means no timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) {
		o.fetchTimeout = d
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &gramsearch.BasicMetricsCollector{}
//	eng, _ := gramsearch.Open(ctx, store, gramsearch.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, fetched: %d bytes\n", stats.SearchCount, stats.FetchBytes)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := gramsearch.NewJSONLogger(slog.LevelInfo)
//	eng, _ := gramsearch.Open(ctx, store, gramsearch.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}
