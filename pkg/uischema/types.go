package uischema

import (
	"fmt"
	"sort"
	"strings"
)

// Store keeps the parsed overlays keyed by template id. It is safe for
// concurrent readers when treated as immutable after construction.
type Store struct {
	overlays map[string]Overlay
}

// Overlay holds the field overrides for one template.
type Overlay struct {
	TemplateID string
	Source     string
	Fields     map[string]FieldConfig
}

// FieldConfig customises one node. Label and Description apply to the
// template's default language; Labels and Descriptions target specific
// languages and win over them.
type FieldConfig struct {
	Widget       string            `json:"widget,omitempty" yaml:"widget,omitempty"`
	Label        string            `json:"label,omitempty" yaml:"label,omitempty"`
	Labels       map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	Descriptions map[string]string `json:"descriptions,omitempty" yaml:"descriptions,omitempty"`
	Annotations  map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	OriginalPath string            `json:"-" yaml:"-"`
}

// Paths returns the overlay's normalised field paths in sorted order.
func (o Overlay) Paths() []string {
	paths := make([]string, 0, len(o.Fields))
	for path := range o.Fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// FieldPathError reports an overlay entry whose path matches no node.
type FieldPathError struct {
	TemplateID string
	Source     string
	Path       string
	Err        error
}

func (e *FieldPathError) Error() string {
	return fmt.Sprintf("uischema: template %q (file %s) field %q: %v", e.TemplateID, e.Source, e.Path, e.Err)
}

func (e *FieldPathError) Unwrap() error { return e.Err }

// NormalizeFieldPath trims whitespace and redundant slashes from an id path,
// so "/vitals//pulse/" and "vitals/pulse" address the same node.
func NormalizeFieldPath(path string) string {
	parts := strings.Split(strings.TrimSpace(path), "/")
	kept := parts[:0]
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "/")
}
