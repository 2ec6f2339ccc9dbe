package ecs

import "go.uber.org/zap"

type options struct {
	logger         *zap.Logger
	entityCapacity int
}

// Option configures a Storage.
type Option func(*options)

// WithLogger sets the logger used for lifecycle debug records and
// integrity failures. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEntityCapacity pre-sizes the entity table.
func WithEntityCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.entityCapacity = n
		}
	}
}

func defaultOptions() options {
	return options{
		logger:         zap.NewNop(),
		entityCapacity: 256,
	}
}
