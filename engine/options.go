package engine

import "log/slog"

// ============================================================================
// ENGINE OPTIONS — Functional options for NewSession()
// ============================================================================

// Option configures session behavior via functional options pattern.
type Option func(*config)

type config struct {
	Logger *slog.Logger
	Panels []Panel // used by Dashboard when called with nil panels
	ID     string
}

// WithLogger sets the logger recomputations are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithPanels replaces the default dashboard panel set.
func WithPanels(panels []Panel) Option {
	return func(c *config) {
		c.Panels = panels
	}
}

// WithSessionID fixes the session id instead of generating one.
func WithSessionID(id string) Option {
	return func(c *config) {
		c.ID = id
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Panels == nil {
		cfg.Panels = DefaultPanels()
	}
	return cfg
}
