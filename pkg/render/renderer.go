package render

import (
	"context"

	"github.com/goliatone/go-ehrform/pkg/form"
)

// Renderer turns a live form into a byte representation (markup, text).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, f *form.Form, options RenderOptions) ([]byte, error)
}
