package form

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-ehrform/pkg/binding"
)

// Option customises a Form.
type Option func(*Form)

// WithFactory sets the factory used to create bound fields. Defaults to a
// binding.MemoryFactory.
func WithFactory(factory binding.Factory) Option {
	return func(f *Form) {
		if factory != nil {
			f.factory = factory
		}
	}
}

// WithLogger sets the logger. Defaults to zerolog.Nop().
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Form) {
		f.logger = logger
	}
}

// WithoutContext skips inContext nodes (composer, language, ...). Keys for
// skipped nodes are reported as unknown by Hydrate.
func WithoutContext() Option {
	return func(f *Form) {
		f.skipContext = true
	}
}

// WithIDGenerator overrides how instance ids are generated. Defaults to
// random UUIDs.
func WithIDGenerator(fn func() string) Option {
	return func(f *Form) {
		if fn != nil {
			f.newID = fn
		}
	}
}

func defaultID() string {
	return uuid.New().String()
}
