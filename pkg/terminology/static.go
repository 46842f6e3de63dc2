package terminology

import (
	"context"
	"strings"
)

// StaticSearcher serves a fixed candidate list. Matching is a case
// insensitive substring test on label and term; an empty search string
// returns the whole list. Constraints are ignored.
type StaticSearcher struct {
	Candidates []Candidate
}

// NewStaticSearcher builds a searcher over plain labels, using each label as
// its own code, the way mock option lists are declared.
func NewStaticSearcher(labels ...string) *StaticSearcher {
	s := &StaticSearcher{Candidates: make([]Candidate, 0, len(labels))}
	for _, label := range labels {
		s.Candidates = append(s.Candidates, Candidate{Value: label, Label: label, Term: label, Star: true})
	}
	return s
}

func (s *StaticSearcher) Search(ctx context.Context, query Query) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(query.SearchString))
	out := make([]Candidate, 0, len(s.Candidates))
	for _, c := range s.Candidates {
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.Label), needle) &&
			!strings.Contains(strings.ToLower(c.Term), needle) {
			continue
		}
		out = append(out, c)
		if query.MaxHits > 0 && len(out) == query.MaxHits {
			break
		}
	}
	return out, nil
}
