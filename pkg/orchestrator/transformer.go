package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-ehrform/pkg/flat"
	"github.com/goliatone/go-ehrform/pkg/form"
)

// Transformer mutates a live form after hydration. Implementations can set
// context values, add repeat instances or apply site defaults.
type Transformer interface {
	Transform(ctx context.Context, f *form.Form) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, f *form.Form) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, f *form.Form) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, f)
}

// Chain runs transformers in order, stopping at the first error.
func Chain(transformers ...Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, f *form.Form) error {
		for _, t := range transformers {
			if t == nil {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := t.Transform(ctx, f); err != nil {
				return err
			}
		}
		return nil
	})
}

// PresetTransformer fills a form with default FLAT values. Values already in
// the form win over the preset. A preset such as
//
//	{
//	  "/category|code": "433",
//	  "/language|code": "en",
//	  "/language|terminology": "ISO_639-1"
//	}
//
// only needs the keys it wants to default.
type PresetTransformer struct {
	preset flat.Document
}

// NewPresetTransformer constructs a transformer from raw JSON or YAML bytes.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	doc, err := flat.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{preset: doc}, nil
}

// NewPresetTransformerFromFS loads a preset document from the provided
// filesystem path.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform merges the preset under the collected form values and hydrates
// the result back. Preset keys the form does not know fail the transform.
func (t *PresetTransformer) Transform(ctx context.Context, f *form.Form) error {
	if f == nil {
		return errors.New("preset transformer: form is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	merged := t.preset.Clone()
	for key, value := range f.Collect() {
		merged[key] = value
	}
	report := f.Hydrate(merged)
	if err := report.Err(); err != nil {
		return fmt.Errorf("preset transformer: %w", err)
	}
	return nil
}
