package binding

import (
	"log/slog"

	"github.com/google/uuid"
)

// Option configures a Binding.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger for lifecycle messages. A nil logger keeps the
// default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewKey returns a random key for a record that doesn't exist yet.
func NewKey() string {
	return uuid.NewString()
}
