package terminology

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SearchPath is the endpoint both HTTPSearcher and Handler use.
const SearchPath = "/snomed/search"

// HTTPSearcher queries a terminology server over HTTP.
type HTTPSearcher struct {
	base        string
	client      *http.Client
	terminology string
}

// HTTPOption customises an HTTPSearcher.
type HTTPOption func(*HTTPSearcher)

// WithClient overrides the HTTP client.
func WithClient(client *http.Client) HTTPOption {
	return func(s *HTTPSearcher) {
		if client != nil {
			s.client = client
		}
	}
}

// WithTimeout sets the timeout on the default client.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(s *HTTPSearcher) {
		if timeout > 0 {
			clone := *s.client
			clone.Timeout = timeout
			s.client = &clone
		}
	}
}

// WithTerminology sets the terminology id attached to candidates.
func WithTerminology(id string) HTTPOption {
	return func(s *HTTPSearcher) {
		s.terminology = id
	}
}

// NewHTTPSearcher returns a searcher for the server rooted at base.
func NewHTTPSearcher(base string, opts ...HTTPOption) *HTTPSearcher {
	s := &HTTPSearcher{
		base:        strings.TrimRight(base, "/"),
		client:      &http.Client{Timeout: 10 * time.Second},
		terminology: DefaultTerminology,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *HTTPSearcher) Search(ctx context.Context, query Query) ([]Candidate, error) {
	if strings.TrimSpace(query.SearchString) == "" {
		return nil, ErrEmptySearch
	}

	params := url.Values{}
	params.Set("s", query.SearchString)
	if query.MaxHits > 0 {
		params.Set("maxHits", strconv.Itoa(query.MaxHits))
	}
	if query.Constraint != "" {
		params.Set("constraint", query.Constraint)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+SearchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("terminology: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("terminology: search %q: %w", query.SearchString, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("terminology: search %q: unexpected status %s", query.SearchString, resp.Status)
	}

	var concepts []concept
	if err := json.NewDecoder(resp.Body).Decode(&concepts); err != nil {
		return nil, fmt.Errorf("terminology: decode response: %w", err)
	}

	out := make([]Candidate, 0, len(concepts))
	for _, c := range concepts {
		out = append(out, c.candidate(s.terminology))
	}
	return out, nil
}
