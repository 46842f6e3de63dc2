package webtemplate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Parse decodes a Web Template JSON payload and validates it.
func Parse(raw []byte) (*Template, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &MalformedTemplateError{Reason: "document is empty"}
	}
	var tmpl Template
	if err := json.Unmarshal(raw, &tmpl); err != nil {
		return nil, &MalformedTemplateError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := tmpl.link(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// MustParse panics when Parse fails. Useful for fixtures.
func MustParse(raw []byte) *Template {
	tmpl, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// Language returns the default language, falling back to the first declared
// language.
func (t *Template) Language() string {
	if t == nil {
		return ""
	}
	if t.DefaultLanguage != "" {
		return t.DefaultLanguage
	}
	if len(t.Languages) > 0 {
		return t.Languages[0]
	}
	return ""
}

func (t *Template) link() error {
	if strings.TrimSpace(t.TemplateID) == "" {
		return &MalformedTemplateError{Field: "templateId", Reason: "templateId is required"}
	}
	if t.Tree == nil {
		return &MalformedTemplateError{Field: "tree", Reason: "tree is required"}
	}

	v := validator{bound: make(map[string]string)}
	return v.visit(t.Tree, nil, "")
}

type validator struct {
	// bound maps aqlPath to the id path of the bound node that owns it.
	bound map[string]string
}

func (v *validator) visit(node, parent *Node, parentPath string) error {
	node.parent = parent

	idPath := node.ID
	if parentPath != "" {
		idPath = parentPath + "/" + node.ID
	}

	if strings.TrimSpace(node.ID) == "" {
		at := parentPath
		if at == "" {
			at = "<root>"
		}
		return &MalformedTemplateError{Path: at, Field: "id", Reason: "child node is missing an id"}
	}
	if strings.TrimSpace(string(node.RMType)) == "" {
		return &MalformedTemplateError{Path: idPath, Field: "rmType", Reason: "rmType is required"}
	}
	if err := checkOccurrences(node.Min, node.Max); err != "" {
		return &MalformedTemplateError{Path: idPath, Field: "min/max", Reason: err}
	}

	for _, ancestor := range node.repeatingAncestors() {
		if !ExtendsPath(node.AQLPath, ancestor.AQLPath) {
			return &MalformedTemplateError{
				Path:   idPath,
				Field:  "aqlPath",
				Reason: fmt.Sprintf("aqlPath %q does not extend repeating ancestor %q path %q", node.AQLPath, ancestor.ID, ancestor.AQLPath),
			}
		}
	}

	if node.IsBound() {
		if owner, dup := v.bound[node.AQLPath]; dup {
			return &MalformedTemplateError{
				Path:   idPath,
				Field:  "aqlPath",
				Reason: fmt.Sprintf("aqlPath %q is already bound by %q", node.AQLPath, owner),
			}
		}
		v.bound[node.AQLPath] = idPath
	}

	seen := make(map[string]struct{}, len(node.Children))
	for _, child := range node.Children {
		if child == nil {
			return &MalformedTemplateError{Path: idPath, Field: "children", Reason: "null child"}
		}
		if _, dup := seen[child.ID]; dup && child.ID != "" {
			return &MalformedTemplateError{Path: idPath + "/" + child.ID, Field: "id", Reason: "duplicate sibling id"}
		}
		seen[child.ID] = struct{}{}
	}

	for idx, card := range node.Cardinalities {
		field := fmt.Sprintf("cardinalities[%d]", idx)
		if card.Min < 0 || (card.Max != Unbounded && card.Max < card.Min) {
			return &MalformedTemplateError{Path: idPath, Field: field, Reason: fmt.Sprintf("invalid bounds %d..%d", card.Min, card.Max)}
		}
		for _, id := range card.IDs {
			if _, ok := seen[id]; !ok {
				return &MalformedTemplateError{Path: idPath, Field: field, Reason: fmt.Sprintf("unknown child id %q", id)}
			}
		}
	}

	for _, child := range node.Children {
		if err := v.visit(child, node, idPath); err != nil {
			return err
		}
	}
	return nil
}

func checkOccurrences(min, max int) string {
	switch {
	case min < 0:
		return fmt.Sprintf("min %d is negative", min)
	case max == 0 || max < Unbounded:
		return fmt.Sprintf("max %d is invalid", max)
	case max != Unbounded && min > max:
		return fmt.Sprintf("min %d exceeds max %d", min, max)
	}
	return ""
}

// repeatingAncestors returns the strict ancestors of n that repeat, root first.
func (n *Node) repeatingAncestors() []*Node {
	var out []*Node
	for _, node := range n.Ancestors() {
		if node == n {
			break
		}
		if node.IsRepeating() {
			out = append(out, node)
		}
	}
	return out
}

// ExtendsPath reports whether path equals prefix or continues it at a
// segment boundary ("/" or "|").
func ExtendsPath(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) || prefix == "" {
		return true
	}
	next := path[len(prefix)]
	return next == '/' || next == '|'
}
