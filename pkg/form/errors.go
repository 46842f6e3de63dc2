package form

import (
	"errors"
	"fmt"
)

// UnknownPathError reports a FLAT key that matches no node of the form.
type UnknownPathError struct {
	Key    string
	Reason string
	Err    error
}

func (e *UnknownPathError) Error() string {
	msg := fmt.Sprintf("form: unknown path %q", e.Key)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnknownPathError) Unwrap() error { return e.Err }

// FieldError reports a value that could not be assembled from its FLAT
// parts or was rejected by its field.
type FieldError struct {
	Node string
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("form: field %s (%s): %v", e.Node, e.Path, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// HydrateReport summarises one Hydrate call. Hydration is best effort: every
// key that could be placed was applied.
type HydrateReport struct {
	Unknown []*UnknownPathError
	Fields  []*FieldError
	Added   int
	Removed int
}

// OK reports whether every key was applied.
func (r *HydrateReport) OK() bool {
	return r == nil || (len(r.Unknown) == 0 && len(r.Fields) == 0)
}

// UnknownKeys returns the keys that matched no node, sorted.
func (r *HydrateReport) UnknownKeys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.Unknown))
	for i, u := range r.Unknown {
		out[i] = u.Key
	}
	return out
}

// Err joins every problem into one error, or nil.
func (r *HydrateReport) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Unknown)+len(r.Fields))
	for _, u := range r.Unknown {
		errs = append(errs, u)
	}
	for _, fe := range r.Fields {
		errs = append(errs, fe)
	}
	return errors.Join(errs...)
}
