package render

// RenderOptions carry per-request data renderers use without mutating the
// form.
type RenderOptions struct {
	// Language selects localized labels; empty means the template default.
	Language string
	// Action is the submit target of the rendered form, if any.
	Action string
	// Errors are messages keyed by instance path (see MapErrorPayload).
	Errors map[string][]string
	// FormErrors are messages not tied to a path.
	FormErrors []string
	// Hidden fields are emitted as-is next to the visible controls.
	Hidden map[string]string
}
