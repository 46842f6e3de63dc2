package terminology

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-ehrform/pkg/datavalue"
)

const (
	// DefaultHits is the page size of a fresh session.
	DefaultHits = 10
	// HitsStep is how far More and Less move the page size.
	HitsStep = 10
)

// ErrSuperseded is returned by Session.Search when a newer search started
// before the lookup finished. Its results are discarded.
var ErrSuperseded = errors.New("terminology: search superseded")

// Result is one page of search results.
type Result struct {
	Candidates []Candidate
	// More is true when the page is full and a larger page may return more.
	More bool
}

// Session holds the search state of a single coded-text field.
type Session struct {
	searcher    Searcher
	hits        int
	terminology string

	mu      sync.Mutex
	filters []Filter
	extra   int
	last    string
	seq     uint64
	cancel  context.CancelFunc
}

// SessionOption customises a Session.
type SessionOption func(*Session)

// WithHits sets the base page size.
func WithHits(hits int) SessionOption {
	return func(s *Session) {
		if hits > 0 {
			s.hits = hits
		}
	}
}

// WithFilters installs the constraint filters.
func WithFilters(filters ...Filter) SessionOption {
	return func(s *Session) {
		s.filters = append([]Filter(nil), filters...)
	}
}

// WithSessionTerminology sets the terminology stamped on selected values
// whose candidate carries none.
func WithSessionTerminology(id string) SessionOption {
	return func(s *Session) {
		s.terminology = id
	}
}

// NewSession creates a session over searcher.
func NewSession(searcher Searcher, opts ...SessionOption) *Session {
	s := &Session{searcher: searcher, hits: DefaultHits}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// MaxHits reports the current page size.
func (s *Session) MaxHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits + s.extra
}

// More grows the page size by HitsStep.
func (s *Session) More() {
	s.mu.Lock()
	s.extra += HitsStep
	s.mu.Unlock()
}

// Less shrinks the page size by HitsStep, never below the base size.
func (s *Session) Less() {
	s.mu.Lock()
	if s.extra >= HitsStep {
		s.extra -= HitsStep
	}
	s.mu.Unlock()
}

// Filters returns a copy of the session filters.
func (s *Session) Filters() []Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Filter(nil), s.filters...)
}

// Toggle flips the filter at index i. Out of range indexes are ignored.
func (s *Session) Toggle(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= 0 && i < len(s.filters) {
		s.filters[i].Toggle()
	}
}

// Search runs a lookup for text, cancelling any lookup still in flight.
// Changing the search text resets the page size.
func (s *Session) Search(ctx context.Context, text string) (Result, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	if text != s.last {
		s.extra = 0
		s.last = text
	}
	s.seq++
	seq := s.seq
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	constraint, _ := Constraints(s.filters)
	query := Query{SearchString: text, MaxHits: s.hits + s.extra, Constraint: constraint}
	s.mu.Unlock()

	defer cancel()

	candidates, err := s.searcher.Search(ctx, query)

	s.mu.Lock()
	current := seq == s.seq
	if current {
		s.cancel = nil
	}
	s.mu.Unlock()

	if !current {
		return Result{}, ErrSuperseded
	}
	if err != nil {
		return Result{}, err
	}
	return Result{
		Candidates: candidates,
		More:       query.MaxHits > 0 && len(candidates) == query.MaxHits,
	}, nil
}

// Select turns a chosen candidate into the coded value for the field.
func (s *Session) Select(c Candidate) datavalue.CodedText {
	v := c.CodedText()
	if v.Terminology == "" {
		v.Terminology = s.terminology
	}
	return v
}

// Clear resets the paging state and cancels any lookup in flight.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	s.extra = 0
	s.last = ""
}
