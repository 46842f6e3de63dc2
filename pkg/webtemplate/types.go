package webtemplate

import (
	"encoding/json"
	"strings"
)

// Unbounded is the Max value used by Web Templates for "no upper limit".
const Unbounded = -1

// Template is the top-level Web Template document.
type Template struct {
	TemplateID      string   `json:"templateId"`
	Version         string   `json:"version,omitempty"`
	DefaultLanguage string   `json:"defaultLanguage,omitempty"`
	Languages       []string `json:"languages,omitempty"`
	Tree            *Node    `json:"tree"`
}

// Node is one node of the Web Template tree. Nodes are immutable after Parse;
// the parent link is populated during parsing.
type Node struct {
	ID                    string            `json:"id"`
	Name                  string            `json:"name,omitempty"`
	LocalizedName         string            `json:"localizedName,omitempty"`
	RMType                RMType            `json:"rmType"`
	NodeID                string            `json:"nodeId,omitempty"`
	Min                   int               `json:"min"`
	Max                   int               `json:"max"`
	AQLPath               string            `json:"aqlPath"`
	LocalizedNames        map[string]string `json:"localizedNames,omitempty"`
	LocalizedDescriptions map[string]string `json:"localizedDescriptions,omitempty"`
	Annotations           map[string]string `json:"annotations,omitempty"`
	Inputs                []Input           `json:"inputs,omitempty"`
	InContext             bool              `json:"inContext,omitempty"`
	Cardinalities         []Cardinality     `json:"cardinalities,omitempty"`
	DependsOn             []string          `json:"dependsOn,omitempty"`
	Children              []*Node           `json:"children,omitempty"`

	parent *Node
}

// Input describes one editable part of a data value. Multi-part values use
// Suffix to tell the parts apart (code/value, magnitude/unit, ...).
type Input struct {
	Type         string      `json:"type"`
	Suffix       string      `json:"suffix,omitempty"`
	List         []ListItem  `json:"list,omitempty"`
	ListOpen     bool        `json:"listOpen,omitempty"`
	Terminology  string      `json:"terminology,omitempty"`
	DefaultValue string      `json:"defaultValue,omitempty"`
	Validation   *Validation `json:"validation,omitempty"`
}

// ListItem is one permitted value of a coded input or unit list.
type ListItem struct {
	Value                 string            `json:"value"`
	Label                 string            `json:"label,omitempty"`
	LocalizedLabels       map[string]string `json:"localizedLabels,omitempty"`
	LocalizedDescriptions map[string]string `json:"localizedDescriptions,omitempty"`
	Ordinal               *int              `json:"ordinal,omitempty"`
	Validation            *Validation       `json:"validation,omitempty"`
}

// Validation carries the constraints attached to an input or list item.
type Validation struct {
	Range     *Interval `json:"range,omitempty"`
	Precision *Interval `json:"precision,omitempty"`
	Pattern   string    `json:"pattern,omitempty"`
}

// Interval is a numeric interval with explicit comparison operators
// (">=", ">", "<=", "<"). Nil bounds are open.
type Interval struct {
	Min   *json.Number `json:"min,omitempty"`
	MinOp string       `json:"minOp,omitempty"`
	Max   *json.Number `json:"max,omitempty"`
	MaxOp string       `json:"maxOp,omitempty"`
}

// Cardinality requires between Min and Max (Unbounded for no limit) of the
// listed child ids to be populated in every instance of the owning node.
type Cardinality struct {
	Min int      `json:"min"`
	Max int      `json:"max"`
	IDs []string `json:"ids"`
}

// IsRepeating reports whether the node may occur more than once.
func (n *Node) IsRepeating() bool {
	return n != nil && n.Max != 1
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return n != nil && len(n.Children) == 0
}

// IsBound reports whether the node holds a value of its own and therefore
// needs a bound field.
func (n *Node) IsBound() bool {
	return n != nil && (len(n.Inputs) > 0 || len(n.Children) == 0)
}

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// Ancestors returns the chain from the root down to (and including) n.
func (n *Node) Ancestors() []*Node {
	var chain []*Node
	for cur := n; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// IDPath returns the slash separated ids from the root to n.
func (n *Node) IDPath() string {
	chain := n.Ancestors()
	ids := make([]string, len(chain))
	for i, node := range chain {
		ids[i] = node.ID
	}
	return strings.Join(ids, "/")
}

// Child returns the direct child with the given id.
func (n *Node) Child(id string) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	for _, child := range n.Children {
		if child.ID == id {
			return child, true
		}
	}
	return nil, false
}

// Label returns the display name for lang, falling back to localizedName,
// name and finally the id.
func (n *Node) Label(lang string) string {
	if n == nil {
		return ""
	}
	if lang != "" {
		if label := strings.TrimSpace(n.LocalizedNames[lang]); label != "" {
			return label
		}
	}
	for _, candidate := range []string{n.LocalizedName, n.Name} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return n.ID
}

// Description returns the localized description for lang, if any.
func (n *Node) Description(lang string) string {
	if n == nil || len(n.LocalizedDescriptions) == 0 {
		return ""
	}
	if desc, ok := n.LocalizedDescriptions[lang]; ok {
		return strings.TrimSpace(desc)
	}
	return ""
}

// Input returns the input declared with the given suffix.
func (n *Node) Input(suffix string) (Input, bool) {
	if n == nil {
		return Input{}, false
	}
	for _, in := range n.Inputs {
		if in.Suffix == suffix {
			return in, true
		}
	}
	return Input{}, false
}

// Option returns the list item with the given code across all inputs.
func (n *Node) Option(code string) (ListItem, bool) {
	if n == nil {
		return ListItem{}, false
	}
	for _, in := range n.Inputs {
		for _, item := range in.List {
			if item.Value == code {
				return item, true
			}
		}
	}
	return ListItem{}, false
}

// Terminology returns the terminology declared by the node's inputs,
// defaulting to "local" for lists of archetype codes.
func (n *Node) Terminology() string {
	if n == nil {
		return ""
	}
	for _, in := range n.Inputs {
		if in.Terminology != "" {
			return in.Terminology
		}
	}
	for _, in := range n.Inputs {
		if len(in.List) > 0 {
			return "local"
		}
	}
	return ""
}

// ItemLabel returns the label for lang, falling back to Label and Value.
func (i ListItem) ItemLabel(lang string) string {
	if lang != "" {
		if label := strings.TrimSpace(i.LocalizedLabels[lang]); label != "" {
			return label
		}
	}
	if label := strings.TrimSpace(i.Label); label != "" {
		return label
	}
	return i.Value
}
