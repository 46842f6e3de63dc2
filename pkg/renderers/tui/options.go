package tui

import (
	"github.com/rs/zerolog"

	"github.com/goliatone/go-ehrform/pkg/terminology"
)

// OutputFormat controls how Render serializes the collected document.
type OutputFormat string

const (
	// OutputFormatJSON emits the FLAT document as JSON.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatPrettyText emits one "key = value" line per entry.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Option configures a Filler.
type Option func(*Filler)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithSearcher enables terminology lookups for coded fields without a
// closed list.
func WithSearcher(searcher terminology.Searcher) Option {
	return func(f *Filler) {
		f.searcher = searcher
	}
}

// WithSearchHits sets the page size of terminology lookups.
func WithSearchHits(hits int) Option {
	return func(f *Filler) {
		if hits > 0 {
			f.hits = hits
		}
	}
}

// WithLanguage selects the label language.
func WithLanguage(lang string) Option {
	return func(f *Filler) {
		f.lang = lang
	}
}

// WithOutputFormat selects the Render output format.
func WithOutputFormat(format OutputFormat) Option {
	return func(f *Filler) {
		if format != "" {
			f.format = format
		}
	}
}

// WithLogger sets the filler logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Filler) {
		f.logger = logger
	}
}
