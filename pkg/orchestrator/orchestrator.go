package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	internalLoader "github.com/goliatone/go-ehrform/internal/webtemplate/loader"
	"github.com/goliatone/go-ehrform/pkg/flat"
	"github.com/goliatone/go-ehrform/pkg/form"
	"github.com/goliatone/go-ehrform/pkg/render"
	"github.com/goliatone/go-ehrform/pkg/renderers/markup"
	"github.com/goliatone/go-ehrform/pkg/uischema"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

const defaultRendererName = markup.Name

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom Web Template loader.
func WithLoader(loader webtemplate.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithTransformer registers a Transformer that runs on the live form after
// hydration and before rendering.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithFormOptions forwards options to every form.New call.
func WithFormOptions(options ...form.Option) Option {
	return func(o *Orchestrator) {
		o.formOptions = append(o.formOptions, options...)
	}
}

// WithUISchema applies the store's overlays to every template before the
// form is built.
func WithUISchema(store *uischema.Store) Option {
	return func(o *Orchestrator) {
		o.uiSchema = store
	}
}

// WithLogger sets the pipeline logger. Forms inherit it unless a form
// option overrides it.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// Orchestrator coordinates the full pipeline from Web Template to rendered
// output. Missing dependencies default to the built-in loader and the markup
// renderer.
type Orchestrator struct {
	loader          webtemplate.Loader
	registry        *render.Registry
	defaultRenderer string
	transformer     Transformer
	formOptions     []form.Option
	uiSchema        *uischema.Store
	logger          zerolog.Logger
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		logger:          zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes the inputs of one pipeline run.
type Request struct {
	// Source identifies where the Web Template lives. Optional when Template
	// is supplied.
	Source webtemplate.Source

	// Template bypasses the loader when the caller already parsed it.
	Template *webtemplate.Template

	// Document prefills the form. Hydration problems surface as render
	// errors.
	Document flat.Document

	// Renderer names the renderer to use; empty selects the default.
	Renderer string

	RenderOptions render.RenderOptions
}

// Prepared is a live form built for a request.
type Prepared struct {
	Form   *form.Form
	Report *form.HydrateReport
}

// Prepare loads the template, builds the form, hydrates the request document
// and applies the transformer.
func (o *Orchestrator) Prepare(ctx context.Context, req Request) (*Prepared, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	tmpl, err := o.resolveTemplate(ctx, req)
	if err != nil {
		return nil, err
	}

	options := append([]form.Option{form.WithLogger(o.logger)}, o.formOptions...)
	f, err := form.New(tmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build form: %w", err)
	}

	prepared := &Prepared{Form: f}
	if len(req.Document) > 0 {
		prepared.Report = f.Hydrate(req.Document)
		if !prepared.Report.OK() {
			o.logger.Warn().
				Str("template", tmpl.TemplateID).
				Int("unknown", len(prepared.Report.Unknown)).
				Int("fields", len(prepared.Report.Fields)).
				Msg("document did not hydrate cleanly")
		}
	}

	if o.transformer != nil {
		if err := o.transformer.Transform(ctx, f); err != nil {
			return nil, fmt.Errorf("orchestrator: transform form: %w", err)
		}
	}
	return prepared, nil
}

// Generate prepares the form and renders it with the requested renderer.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	prepared, err := o.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	options := req.RenderOptions
	if prepared.Report != nil && !prepared.Report.OK() {
		options = withMapping(options, render.MapHydrateReport(prepared.Form, prepared.Report))
	}

	output, err := renderer.Render(ctx, prepared.Form, options)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

func withMapping(options render.RenderOptions, mapping render.ErrorMapping) render.RenderOptions {
	merged := render.ErrorMapping{Form: options.FormErrors}
	for path, messages := range options.Errors {
		merged.Merge(render.ErrorMapping{Fields: map[string][]string{path: messages}})
	}
	merged.Merge(mapping)
	options.Errors = merged.Fields
	options.FormErrors = merged.Form
	return options
}

func (o *Orchestrator) resolveTemplate(ctx context.Context, req Request) (*webtemplate.Template, error) {
	tmpl := req.Template
	if tmpl == nil {
		if req.Source == nil {
			return nil, errors.New("orchestrator: source or template is required")
		}
		loaded, err := o.loader.Load(ctx, req.Source)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: load template: %w", err)
		}
		tmpl = loaded
	}
	if o.uiSchema.Empty() {
		return tmpl, nil
	}
	decorated, err := o.uiSchema.Apply(tmpl)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: apply ui schema: %w", err)
	}
	return decorated, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}
	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.Names()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}
	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.loader == nil {
		o.loader = internalLoader.New(webtemplate.NewLoaderOptions())
	}
	if o.registry == nil {
		renderer, err := markup.New(markup.WithLogger(o.logger))
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
			o.registry = render.NewRegistry()
		} else {
			o.registry = render.NewRegistry(renderer)
		}
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
}
