package helpers

import (
	"log/slog"
	"time"
)

// Option configures the loaders.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	debounce time.Duration
}

// WithLogger sets the logger skipped rows are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDebounce sets the quiet period Watch waits for.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

func applyOptions(opts []Option) *options {
	o := &options{logger: slog.Default(), debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
