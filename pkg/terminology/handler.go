package terminology

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const maxHandlerHits = 100

// Handler serves SearchPath over a Searcher.
type Handler struct {
	searcher Searcher
	logger   zerolog.Logger
}

// NewHandler creates a handler for searcher.
func NewHandler(searcher Searcher, logger zerolog.Logger) *Handler {
	return &Handler{searcher: searcher, logger: logger}
}

// RegisterRoutes mounts the search endpoint on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET(SearchPath, h.Search)
}

func maxHits(c echo.Context) int {
	hits, _ := strconv.Atoi(c.QueryParam("maxHits"))
	if hits <= 0 {
		hits = DefaultHits
	}
	if hits > maxHandlerHits {
		hits = maxHandlerHits
	}
	return hits
}

// Search handles GET /snomed/search?s=...&maxHits=...&constraint=...
func (h *Handler) Search(c echo.Context) error {
	text := c.QueryParam("s")
	if text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter 's' is required")
	}
	query := Query{SearchString: text, MaxHits: maxHits(c), Constraint: c.QueryParam("constraint")}

	candidates, err := h.searcher.Search(c.Request().Context(), query)
	if err != nil {
		if errors.Is(err, ErrEmptySearch) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Str("search", text).Msg("terminology search failed")
		return echo.NewHTTPError(http.StatusBadGateway, "terminology search failed")
	}
	if len(candidates) > query.MaxHits {
		candidates = candidates[:query.MaxHits]
	}

	out := make([]concept, 0, len(candidates))
	for i, cand := range candidates {
		out = append(out, fromCandidate(i+1, cand))
	}
	return c.JSON(http.StatusOK, out)
}
