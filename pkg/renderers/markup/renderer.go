package markup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-ehrform/pkg/form"
	"github.com/goliatone/go-ehrform/pkg/render"
	rendertemplate "github.com/goliatone/go-ehrform/pkg/render/template"
	"github.com/goliatone/go-ehrform/pkg/render/template/gotemplate"
	"github.com/goliatone/go-ehrform/pkg/widgets"
)

// Name is the registry name of the markup renderer.
const Name = "markup"

const formTemplate = "form"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	widgets          *widgets.Registry
	logger           zerolog.Logger
}

// WithTemplatesFS supplies an alternate template bundle. It must provide
// form.tpl.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithWidgets overrides the widget registry used to pick element names.
func WithWidgets(registry *widgets.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.widgets = registry
		}
	}
}

// WithLogger sets the renderer logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// Renderer writes a live form as mb-* custom element markup.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	widgets   *widgets.Registry
	logger    zerolog.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the markup renderer.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS(), logger: zerolog.Nop()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.widgets == nil {
		cfg.widgets = widgets.NewRegistry()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		if cfg.templateFS == nil {
			cfg.templateFS = TemplatesFS()
		}
		engine, err := gotemplate.New(gotemplate.WithFS(cfg.templateFS))
		if err != nil {
			return nil, fmt.Errorf("markup renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{templates: renderer, widgets: cfg.widgets, logger: cfg.logger}, nil
}

func (r *Renderer) Name() string { return Name }

func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

// Render writes f, including current values and the errors in options.
func (r *Renderer) Render(ctx context.Context, f *form.Form, options render.RenderOptions) ([]byte, error) {
	if f == nil {
		return nil, errors.New("markup renderer: form is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lang := options.Language
	if lang == "" {
		lang = f.Template().Language()
	}
	b := &builder{lang: lang, widgets: r.widgets, errors: options.Errors}
	data := b.build(f, options)

	out, err := r.templates.RenderTemplate(formTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("markup renderer: %w", err)
	}
	r.logger.Debug().
		Str("template", f.Template().TemplateID).
		Int("elements", len(data.Items)).
		Msg("rendered form markup")
	return []byte(out), nil
}
