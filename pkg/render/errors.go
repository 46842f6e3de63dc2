package render

import (
	"strings"

	"github.com/goliatone/go-ehrform/pkg/flatpath"
	"github.com/goliatone/go-ehrform/pkg/form"
	"github.com/goliatone/go-ehrform/pkg/validation"
)

// ErrorMapping splits messages into those attached to a live instance path
// and form-level ones.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// Merge appends other into m.
func (m *ErrorMapping) Merge(other ErrorMapping) {
	for path, messages := range other.Fields {
		m.add(path, messages...)
	}
	m.Form = MergeFormErrors(m.Form, other.Form...)
}

func (m *ErrorMapping) add(path string, messages ...string) {
	messages = normalizeMessages(messages)
	if len(messages) == 0 {
		return
	}
	if m.Fields == nil {
		m.Fields = make(map[string][]string)
	}
	m.Fields[path] = normalizeMessages(append(m.Fields[path], messages...))
}

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// dropping duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload attaches server messages keyed by FLAT key to the live
// instance the key addresses. Suffixes are dropped; keys that do not address
// a live instance become form-level messages so nothing is lost.
func MapErrorPayload(f *form.Form, payload map[string][]string) ErrorMapping {
	var mapping ErrorMapping
	if len(payload) == 0 {
		return mapping
	}

	live := livePaths(f)
	for raw, messages := range payload {
		if path, ok := mapErrorPath(raw, live); ok {
			mapping.add(path, messages...)
			continue
		}
		mapping.Form = MergeFormErrors(mapping.Form, messages...)
	}
	return mapping
}

// MapIssues groups validation issues by instance path.
func MapIssues(f *form.Form, issues []validation.Issue) ErrorMapping {
	payload := make(map[string][]string, len(issues))
	for _, issue := range issues {
		payload[issue.Path] = append(payload[issue.Path], issue.Message)
	}
	return MapErrorPayload(f, payload)
}

// MapHydrateReport turns hydration problems into render errors: field errors
// attach to their instance, unknown keys are form-level.
func MapHydrateReport(f *form.Form, report *form.HydrateReport) ErrorMapping {
	var mapping ErrorMapping
	if report == nil {
		return mapping
	}
	payload := make(map[string][]string, len(report.Fields))
	for _, fe := range report.Fields {
		payload[fe.Path] = append(payload[fe.Path], fe.Err.Error())
	}
	mapping.Merge(MapErrorPayload(f, payload))
	for _, key := range report.UnknownKeys() {
		mapping.Form = MergeFormErrors(mapping.Form, "unknown key "+key)
	}
	return mapping
}

func mapErrorPath(raw string, live map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", false
	}
	parsed, err := flatpath.ParseKey(trimmed)
	if err != nil {
		return "", false
	}
	if _, ok := live[parsed.Base()]; ok {
		return parsed.Base(), true
	}
	return "", false
}

func livePaths(f *form.Form) map[string]struct{} {
	paths := make(map[string]struct{})
	if f == nil {
		return paths
	}
	_ = f.Walk(func(inst *form.Instance) error {
		if path, err := inst.Path(); err == nil {
			paths[path] = struct{}{}
		}
		return nil
	})
	return paths
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(key) {
	case "", "/", "form", "__all__", "non_field_errors":
		return true
	default:
		return false
	}
}
