package terminology

import "strings"

// Filter is a named constraint expression a user can switch on and off.
type Filter struct {
	Label      string
	Expression string
	Disabled   bool
}

// Toggle flips the filter between enabled and disabled.
func (f *Filter) Toggle() {
	f.Disabled = !f.Disabled
}

// Constraints joins the expressions of enabled filters with " OR ". The
// boolean is false when no filter contributes an expression.
func Constraints(filters []Filter) (string, bool) {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f.Disabled || strings.TrimSpace(f.Expression) == "" {
			continue
		}
		parts = append(parts, f.Expression)
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " OR "), true
}
