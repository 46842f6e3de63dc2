package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

// Built-in widget identifiers exposed by the registry. They match the custom
// element names of the medblocks component set.
const (
	WidgetInput    = "mb-input"
	WidgetSelect   = "mb-select"
	WidgetButtons  = "mb-buttons"
	WidgetSearch   = "mb-search"
	WidgetQuantity = "mb-quantity"
	WidgetCount    = "mb-count"
	WidgetDate     = "mb-date"
	WidgetCheckbox = "mb-checkbox"
	WidgetPercent  = "mb-percent"
	WidgetContext  = "mb-context"
)

// ButtonsMaxOptions is the largest closed list rendered as buttons instead of
// a select.
const ButtonsMaxOptions = 4

// Matcher decides whether a widget should render the supplied node.
type Matcher func(node *webtemplate.Node) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for bound nodes based on an explicit "widget"
// annotation or registered matchers. Higher priority wins; ties fall back to
// registration order. An empty registry never resolves a widget.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget name for a node.
func (r *Registry) Resolve(node *webtemplate.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	if explicit := strings.TrimSpace(node.Annotations["widget"]); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(node) {
			return entry.name, true
		}
	}
	return "", false
}

// Assign resolves a widget for every bound node under root, keyed by id path.
func (r *Registry) Assign(root *webtemplate.Node) map[string]string {
	out := make(map[string]string)
	for _, node := range webtemplate.BoundNodes(root) {
		if widget, ok := r.Resolve(node); ok {
			out[node.IDPath()] = widget
		}
	}
	return out
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetContext, 100, func(node *webtemplate.Node) bool {
		return node.InContext
	})

	r.Register(WidgetCheckbox, 90, func(node *webtemplate.Node) bool {
		return node.RMType == webtemplate.RMBoolean
	})

	r.Register(WidgetQuantity, 80, func(node *webtemplate.Node) bool {
		return node.RMType == webtemplate.RMQuantity
	})

	r.Register(WidgetCount, 80, func(node *webtemplate.Node) bool {
		return node.RMType == webtemplate.RMCount
	})

	r.Register(WidgetPercent, 80, func(node *webtemplate.Node) bool {
		return node.RMType == webtemplate.RMProportion
	})

	r.Register(WidgetDate, 80, func(node *webtemplate.Node) bool {
		switch node.RMType {
		case webtemplate.RMDateTime, webtemplate.RMDate, webtemplate.RMTime:
			return true
		}
		return false
	})

	r.Register(WidgetButtons, 70, func(node *webtemplate.Node) bool {
		if !coded(node) {
			return false
		}
		n := optionCount(node)
		return n > 0 && n <= ButtonsMaxOptions
	})

	r.Register(WidgetSelect, 60, func(node *webtemplate.Node) bool {
		return coded(node) && optionCount(node) > 0
	})

	r.Register(WidgetSearch, 50, func(node *webtemplate.Node) bool {
		if !coded(node) {
			return false
		}
		terminology := node.Terminology()
		return terminology != "" && terminology != "local"
	})

	r.Register(WidgetInput, 0, func(node *webtemplate.Node) bool {
		return node.IsBound()
	})
}

func coded(node *webtemplate.Node) bool {
	switch node.RMType {
	case webtemplate.RMCodedText, webtemplate.RMOrdinal, webtemplate.RMScale:
		return true
	}
	return false
}

func optionCount(node *webtemplate.Node) int {
	n := 0
	for _, in := range node.Inputs {
		n += len(in.List)
	}
	return n
}
