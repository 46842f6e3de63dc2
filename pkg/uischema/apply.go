package uischema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

// Apply returns a copy of tmpl with the overlay registered for its template
// id applied. Templates without an overlay are returned as is. Every overlay
// path must resolve; unresolved paths are joined into the returned error.
func (s *Store) Apply(tmpl *webtemplate.Template) (*webtemplate.Template, error) {
	if tmpl == nil {
		return nil, errors.New("uischema: template is nil")
	}
	overlay, ok := s.Overlay(tmpl.TemplateID)
	if !ok || len(overlay.Fields) == 0 {
		return tmpl, nil
	}

	out, err := cloneTemplate(tmpl)
	if err != nil {
		return nil, err
	}

	lang := out.Language()
	var errs []error
	for _, path := range overlay.Paths() {
		cfg := overlay.Fields[path]
		node, err := webtemplate.Lookup(out.Tree, path)
		if err != nil {
			errs = append(errs, &FieldPathError{
				TemplateID: overlay.TemplateID,
				Source:     overlay.Source,
				Path:       cfg.OriginalPath,
				Err:        err,
			})
			continue
		}
		applyField(node, cfg, lang)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func applyField(node *webtemplate.Node, cfg FieldConfig, lang string) {
	for key, value := range cfg.Annotations {
		node.Annotations = setString(node.Annotations, key, value)
	}
	if widget := strings.TrimSpace(cfg.Widget); widget != "" {
		node.Annotations = setString(node.Annotations, "widget", widget)
	}

	if label := strings.TrimSpace(cfg.Label); label != "" {
		node.LocalizedName = label
		if lang != "" {
			node.LocalizedNames = setString(node.LocalizedNames, lang, label)
		}
	}
	for code, label := range cfg.Labels {
		node.LocalizedNames = setString(node.LocalizedNames, code, label)
	}

	if desc := strings.TrimSpace(cfg.Description); desc != "" && lang != "" {
		node.LocalizedDescriptions = setString(node.LocalizedDescriptions, lang, desc)
	}
	for code, desc := range cfg.Descriptions {
		node.LocalizedDescriptions = setString(node.LocalizedDescriptions, code, desc)
	}
}

func setString(m map[string]string, key, value string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[key] = strings.TrimSpace(value)
	return m
}

// cloneTemplate deep copies tmpl through its JSON form so parent links are
// rebuilt by Parse.
func cloneTemplate(tmpl *webtemplate.Template) (*webtemplate.Template, error) {
	raw, err := json.Marshal(tmpl)
	if err != nil {
		return nil, fmt.Errorf("uischema: copy template: %w", err)
	}
	out, err := webtemplate.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("uischema: copy template: %w", err)
	}
	return out, nil
}
