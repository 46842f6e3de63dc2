// Package ehrform renders openEHR Web Templates as data-entry forms and binds
// them to FLAT documents. The root package re-exports the common entry
// points; the building blocks live under pkg/.
package ehrform

import (
	"context"
	"io/fs"

	internalLoader "github.com/goliatone/go-ehrform/internal/webtemplate/loader"
	"github.com/goliatone/go-ehrform/pkg/flat"
	"github.com/goliatone/go-ehrform/pkg/form"
	"github.com/goliatone/go-ehrform/pkg/orchestrator"
	"github.com/goliatone/go-ehrform/pkg/render"
	"github.com/goliatone/go-ehrform/pkg/renderers/markup"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

// RenderOptions describes per-request overrides such as language, hidden
// inputs or server-side errors.
type RenderOptions = render.RenderOptions

// Document is a FLAT document.
type Document = flat.Document

// CheckReport is the outcome of CheckDocument.
type CheckReport = orchestrator.CheckReport

// NewLoader constructs a template loader using the internal implementation
// while keeping the concrete type hidden from consumers.
func NewLoader(options ...webtemplate.LoaderOption) webtemplate.Loader {
	return internalLoader.New(webtemplate.NewLoaderOptions(options...))
}

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// NewForm builds a live form for tmpl.
func NewForm(tmpl *webtemplate.Template, options ...form.Option) (*form.Form, error) {
	return form.New(tmpl, options...)
}

// GenerateHTML loads the template, prefills it with doc (which may be nil)
// and renders it with the named renderer. An empty renderer name selects the
// markup renderer.
func GenerateHTML(ctx context.Context, source webtemplate.Source, doc flat.Document, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Source:   source,
		Document: doc,
		Renderer: rendererName,
	})
}

// GenerateHTMLFromTemplate renders an already parsed template.
func GenerateHTMLFromTemplate(ctx context.Context, tmpl *webtemplate.Template, doc flat.Document, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Template: tmpl,
		Document: doc,
		Renderer: rendererName,
	})
}

// CheckDocument hydrates doc into a fresh form for tmpl, validates it and
// verifies the round trip.
func CheckDocument(ctx context.Context, tmpl *webtemplate.Template, doc flat.Document, options ...orchestrator.Option) (*CheckReport, error) {
	return orchestrator.New(options...).Check(ctx, orchestrator.Request{
		Template: tmpl,
		Document: doc,
	})
}

// EmbeddedTemplates exposes the built-in markup templates so callers can
// reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return markup.TemplatesFS()
}
