// Package devserver serves a single Web Template over HTTP for local
// development: rendered form markup, FLAT document checks and a terminology
// search endpoint for the search widgets.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-ehrform/pkg/flat"
	"github.com/goliatone/go-ehrform/pkg/form"
	"github.com/goliatone/go-ehrform/pkg/orchestrator"
	"github.com/goliatone/go-ehrform/pkg/render"
	"github.com/goliatone/go-ehrform/pkg/renderers/markup"
	"github.com/goliatone/go-ehrform/pkg/terminology"
	"github.com/goliatone/go-ehrform/pkg/validation"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

const (
	FormPath  = "/form"
	CheckPath = "/flat/check"

	shutdownTimeout = 5 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithSearcher enables GET /snomed/search backed by searcher.
func WithSearcher(searcher terminology.Searcher) Option {
	return func(s *Server) {
		s.searcher = searcher
	}
}

// WithLogger sets the server logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithLanguage selects the default label language.
func WithLanguage(lang string) Option {
	return func(s *Server) {
		s.lang = lang
	}
}

// WithFormOptions forwards options to the forms built per request.
func WithFormOptions(options ...form.Option) Option {
	return func(s *Server) {
		s.formOptions = append(s.formOptions, options...)
	}
}

// WithRenderer replaces the markup renderer.
func WithRenderer(renderer render.Renderer) Option {
	return func(s *Server) {
		s.renderer = renderer
	}
}

// Server binds one template to an echo instance. Every request builds a fresh
// form, so handlers share no mutable state.
type Server struct {
	tmpl        *webtemplate.Template
	orch        *orchestrator.Orchestrator
	renderer    render.Renderer
	searcher    terminology.Searcher
	formOptions []form.Option
	lang        string
	logger      zerolog.Logger
	echo        *echo.Echo
}

// New builds the server and registers its routes.
func New(tmpl *webtemplate.Template, options ...Option) (*Server, error) {
	if tmpl == nil {
		return nil, errors.New("devserver: template is required")
	}
	s := &Server{tmpl: tmpl, logger: zerolog.Nop()}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.renderer == nil {
		renderer, err := markup.New(markup.WithLogger(s.logger))
		if err != nil {
			return nil, fmt.Errorf("devserver: markup renderer: %w", err)
		}
		s.renderer = renderer
	}
	s.orch = orchestrator.New(
		orchestrator.WithRegistry(render.NewRegistry(s.renderer)),
		orchestrator.WithDefaultRenderer(s.renderer.Name()),
		orchestrator.WithFormOptions(s.formOptions...),
		orchestrator.WithLogger(s.logger),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(recovery(s.logger))
	e.Use(echomw.RequestID())
	e.Use(requestLogger(s.logger))

	e.GET(FormPath, s.getForm)
	e.POST(FormPath, s.postForm)
	e.POST(CheckPath, s.check)
	if s.searcher != nil {
		terminology.NewHandler(s.searcher, s.logger).RegisterRoutes(e)
	}
	s.echo = e
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Str("template", s.tmpl.TemplateID).Msg("dev server listening")
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("devserver: shutdown: %w", err)
	}
	return nil
}

func (s *Server) renderOptions(c echo.Context) render.RenderOptions {
	lang := c.QueryParam("lang")
	if lang == "" {
		lang = s.lang
	}
	return render.RenderOptions{Language: lang, Action: FormPath}
}

func (s *Server) getForm(c echo.Context) error {
	out, err := s.orch.Generate(c.Request().Context(), orchestrator.Request{
		Template:      s.tmpl,
		RenderOptions: s.renderOptions(c),
	})
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, s.renderer.ContentType(), out)
}

// postForm re-renders the form from a submitted FLAT document with hydrate
// problems and validation issues attached.
func (s *Server) postForm(c echo.Context) error {
	doc, err := decodeDocument(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	prepared, err := s.orch.Prepare(ctx, orchestrator.Request{Template: s.tmpl, Document: doc})
	if err != nil {
		return err
	}

	mapping := render.MapHydrateReport(prepared.Form, prepared.Report)
	result := validation.Validate(prepared.Form)
	mapping.Merge(render.MapIssues(prepared.Form, result.Issues))

	options := s.renderOptions(c)
	options.Errors = mapping.Fields
	options.FormErrors = mapping.Form
	out, err := s.renderer.Render(ctx, prepared.Form, options)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if !prepared.Report.OK() || !result.Valid {
		status = http.StatusUnprocessableEntity
	}
	return c.Blob(status, s.renderer.ContentType(), out)
}

func (s *Server) check(c echo.Context) error {
	doc, err := decodeDocument(c)
	if err != nil {
		return err
	}
	report, err := s.orch.Check(c.Request().Context(), orchestrator.Request{Template: s.tmpl, Document: doc})
	if err != nil {
		return err
	}
	status := http.StatusOK
	if !report.OK() {
		status = http.StatusUnprocessableEntity
	}
	return c.JSON(status, report)
}

func decodeDocument(c echo.Context) (flat.Document, error) {
	doc, err := flat.Decode(c.Request().Body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return doc, nil
}
