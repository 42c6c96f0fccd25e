package feature

import "log/slog"

type options struct {
	logger     *slog.Logger
	validation bool
	observer   func(Feature, error)
}

func defaultOptions() options {
	return options{logger: slog.New(slog.DiscardHandler)}
}

// Option configures a Table or a Loader.
type Option func(*options)

// WithLogger sets the logger. A nil logger keeps the default, which
// discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithValidation enables runtime checks of caller discipline, such as
// overlapping dispatches for the same feature and viewport.
func WithValidation(enabled bool) Option {
	return func(o *options) {
		o.validation = enabled
	}
}

// WithObserver sets a function called with the outcome of every dispatch.
func WithObserver(fn func(f Feature, err error)) Option {
	return func(o *options) {
		o.observer = fn
	}
}
