package webtemplate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by scoped lookups when no node matches.
var ErrNotFound = errors.New("webtemplate: node not found")

// MalformedTemplateError reports a Web Template that violates a structural
// invariant. Path is the id path of the offending node (empty for
// document-level problems).
type MalformedTemplateError struct {
	Path   string
	Field  string
	Reason string
}

func (e *MalformedTemplateError) Error() string {
	var b strings.Builder
	b.WriteString("webtemplate: malformed template")
	if e.Path != "" {
		fmt.Fprintf(&b, " at %q", e.Path)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (%s)", e.Field)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// AmbiguousIDError reports an id that matches more than one node in the
// searched subtree.
type AmbiguousIDError struct {
	ID      string
	Matches []string
}

func (e *AmbiguousIDError) Error() string {
	return fmt.Sprintf("webtemplate: id %q is ambiguous (%s)", e.ID, strings.Join(e.Matches, ", "))
}
