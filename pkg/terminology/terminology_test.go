package terminology

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstraintsSkipsDisabledFilters(t *testing.T) {
	filters := []Filter{
		{Label: "Disorders", Expression: "<404684003"},
		{Label: "Procedures", Expression: "<71388002", Disabled: true},
		{Label: "Findings", Expression: "<64572001"},
	}

	got, ok := Constraints(filters)
	require.True(t, ok)
	assert.Equal(t, "<404684003 OR <64572001", got)

	filters[0].Toggle()
	filters[2].Toggle()
	_, ok = Constraints(filters)
	assert.False(t, ok)

	filters[1].Toggle()
	got, ok = Constraints(filters)
	require.True(t, ok)
	assert.Equal(t, "<71388002", got)
}

func TestStaticSearcher(t *testing.T) {
	s := NewStaticSearcher("Fever", "Cough", "Chest pain", "Chest tightness")

	got, err := s.Search(context.Background(), Query{SearchString: "chest"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Chest pain", got[0].Label)

	got, err = s.Search(context.Background(), Query{MaxHits: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestHTTPSearcherSendsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SearchPath, r.URL.Path)
		assert.Equal(t, "fever", r.URL.Query().Get("s"))
		assert.Equal(t, "20", r.URL.Query().Get("maxHits"))
		assert.Equal(t, "<404684003", r.URL.Query().Get("constraint"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "conceptId": 386661006, "term": "Fever", "preferredTerm": "Fever"},
			{"id": 2, "conceptId": 386661006, "term": "Pyrexia", "preferredTerm": "Fever"}
		]`))
	}))
	defer srv.Close()

	s := NewHTTPSearcher(srv.URL + "/")
	got, err := s.Search(context.Background(), Query{SearchString: "fever", MaxHits: 20, Constraint: "<404684003"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, Candidate{Value: "386661006", Label: "Fever", Term: "Fever", Star: true, Terminology: DefaultTerminology}, got[0])
	assert.False(t, got[1].Star)
	assert.Equal(t, "Pyrexia", got[1].Term)
}

func TestHTTPSearcherErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewHTTPSearcher(srv.URL)
	_, err := s.Search(context.Background(), Query{SearchString: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	_, err = s.Search(context.Background(), Query{})
	assert.ErrorIs(t, err, ErrEmptySearch)
}

func TestHandlerServesHTTPSearcher(t *testing.T) {
	e := echo.New()
	NewHandler(NewStaticSearcher("Chest pain", "Chest tightness", "Fever"), zerolog.Nop()).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	s := NewHTTPSearcher(srv.URL, WithTerminology("local"))
	got, err := s.Search(context.Background(), Query{SearchString: "chest", MaxHits: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Candidate{Value: "Chest pain", Label: "Chest pain", Term: "Chest pain", Star: true, Terminology: "local"}, got[0])
}

func TestHandlerRequiresSearchString(t *testing.T) {
	e := echo.New()
	h := NewHandler(NewStaticSearcher(), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, SearchPath, nil)
	rec := httptest.NewRecorder()
	err := h.Search(e.NewContext(req, rec))

	var httpErr *echo.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestHandlerClampsHits(t *testing.T) {
	var seen Query
	e := echo.New()
	h := NewHandler(SearcherFunc(func(_ context.Context, q Query) ([]Candidate, error) {
		seen = q
		return nil, nil
	}), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, SearchPath+"?s=a&maxHits=5000", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Search(e.NewContext(req, rec)))
	assert.Equal(t, maxHandlerHits, seen.MaxHits)

	var body []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body)
}

func TestHandlerBackendFailure(t *testing.T) {
	e := echo.New()
	h := NewHandler(SearcherFunc(func(context.Context, Query) ([]Candidate, error) {
		return nil, errors.New("unreachable")
	}), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, SearchPath+"?s=a", nil)
	err := h.Search(e.NewContext(req, httptest.NewRecorder()))

	var httpErr *echo.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.Code)
}

func TestSessionPaging(t *testing.T) {
	var seen []Query
	searcher := SearcherFunc(func(_ context.Context, q Query) ([]Candidate, error) {
		seen = append(seen, q)
		return make([]Candidate, q.MaxHits), nil
	})
	s := NewSession(searcher, WithFilters(Filter{Expression: "<404684003"}))

	assert.Equal(t, DefaultHits, s.MaxHits())
	s.Less()
	assert.Equal(t, DefaultHits, s.MaxHits())

	res, err := s.Search(context.Background(), "chest")
	require.NoError(t, err)
	assert.True(t, res.More)

	s.More()
	s.More()
	assert.Equal(t, 30, s.MaxHits())
	_, err = s.Search(context.Background(), "chest")
	require.NoError(t, err)
	s.Less()
	assert.Equal(t, 20, s.MaxHits())

	_, err = s.Search(context.Background(), "fever")
	require.NoError(t, err)
	assert.Equal(t, DefaultHits, s.MaxHits())

	s.Toggle(0)
	_, err = s.Search(context.Background(), "fever")
	require.NoError(t, err)

	require.Len(t, seen, 4)
	assert.Equal(t, Query{SearchString: "chest", MaxHits: 10, Constraint: "<404684003"}, seen[0])
	assert.Equal(t, 30, seen[1].MaxHits)
	assert.Equal(t, 10, seen[2].MaxHits)
	assert.Equal(t, "", seen[3].Constraint)
}

func TestSessionSupersedesInFlightSearch(t *testing.T) {
	started := make(chan struct{})
	searcher := SearcherFunc(func(ctx context.Context, q Query) ([]Candidate, error) {
		if q.SearchString == "slow" {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []Candidate{{Value: "1", Label: q.SearchString}}, nil
	})
	s := NewSession(searcher)

	done := make(chan error, 1)
	go func() {
		_, err := s.Search(context.Background(), "slow")
		done <- err
	}()
	<-started

	res, err := s.Search(context.Background(), "fast")
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.False(t, res.More)

	assert.ErrorIs(t, <-done, ErrSuperseded)
}

func TestSessionSelect(t *testing.T) {
	s := NewSession(NewStaticSearcher(), WithSessionTerminology("SNOMED-CT"))

	got := s.Select(Candidate{Value: "386661006", Label: "Fever", Term: "Pyrexia"})
	assert.Equal(t, "386661006", got.Code)
	assert.Equal(t, "Fever", got.Value)
	assert.Equal(t, "SNOMED-CT", got.Terminology)

	got = s.Select(Candidate{Value: "at0001", Label: "Present", Terminology: "local"})
	assert.Equal(t, "local", got.Terminology)
}
