package terminology

import (
	"context"
	"errors"

	"github.com/goliatone/go-ehrform/pkg/datavalue"
)

// DefaultTerminology is attached to candidates returned by the HTTP searcher
// when the caller does not configure one.
const DefaultTerminology = "SNOMED-CT"

// ErrEmptySearch is returned when a query carries no search string.
var ErrEmptySearch = errors.New("terminology: empty search string")

// Query describes a single lookup.
type Query struct {
	SearchString string
	MaxHits      int
	Constraint   string
}

// Candidate is one search result. Value holds the concept code and Label the
// preferred term; Term is the matched synonym. Star marks results whose
// matched term is the preferred one.
type Candidate struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Term        string `json:"term"`
	Star        bool   `json:"star,omitempty"`
	Terminology string `json:"terminology,omitempty"`
}

// CodedText converts the candidate into the value stored by a coded field.
func (c Candidate) CodedText() datavalue.CodedText {
	return datavalue.CodedText{
		Code:        c.Value,
		Value:       c.Label,
		Terminology: c.Terminology,
	}
}

// Searcher resolves queries against a terminology backend.
type Searcher interface {
	Search(ctx context.Context, query Query) ([]Candidate, error)
}

// SearcherFunc adapts a function to the Searcher interface.
type SearcherFunc func(ctx context.Context, query Query) ([]Candidate, error)

func (fn SearcherFunc) Search(ctx context.Context, query Query) ([]Candidate, error) {
	return fn(ctx, query)
}
