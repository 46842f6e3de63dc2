package validation

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-ehrform/pkg/form"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

// Result captures the outcome of Validate.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// Validate checks the live form. Subtrees of optional instances that hold no
// value are skipped, so an untouched optional observation never reports its
// required elements.
func Validate(f *form.Form) Result {
	result := Result{Valid: true}
	if f == nil {
		return result
	}
	add := func(issue Issue) {
		result.Valid = false
		result.Issues = append(result.Issues, issue)
	}

	_ = f.Walk(func(inst *form.Instance) error {
		node := inst.Node()
		root := inst.Parent() == nil

		if !root && !inst.Populated() {
			if node.Min == 0 {
				return webtemplate.SkipChildren
			}
			if node.IsBound() || node.RMType.Category() == webtemplate.CategoryElement {
				path, _ := inst.Path()
				add(Issue{Path: path, Node: node.IDPath(), Rule: RuleRequired, Message: "a value is required"})
				return webtemplate.SkipChildren
			}
		}

		checkOccurrences(inst, add)

		if inst.Field() != nil {
			path, _ := inst.Path()
			for _, issue := range CheckValue(node, inst.Value()) {
				issue.Path = path + issue.Path
				add(issue)
			}
		}

		if inst.Populated() {
			for _, status := range f.Completeness(inst) {
				if status.Met {
					continue
				}
				path, _ := inst.Path()
				add(Issue{
					Path:    path,
					Node:    node.IDPath(),
					Rule:    RuleCardinality,
					Message: cardinalityMessage(status),
				})
			}
		}
		return nil
	})
	return result
}

func checkOccurrences(inst *form.Instance, add func(Issue)) {
	owner, _ := inst.Path()
	for _, group := range inst.Groups() {
		node := group.Node()
		if !node.IsRepeating() {
			continue
		}
		n := group.Len()
		switch {
		case n < node.Min:
			add(Issue{Path: owner, Node: node.IDPath(), Rule: RuleOccurrences,
				Message: fmt.Sprintf("%d instances, at least %d required", n, node.Min)})
		case node.Max != webtemplate.Unbounded && n > node.Max:
			add(Issue{Path: owner, Node: node.IDPath(), Rule: RuleOccurrences,
				Message: fmt.Sprintf("%d instances, at most %d allowed", n, node.Max)})
		}
	}
}

func cardinalityMessage(status form.CardinalityStatus) string {
	card := status.Cardinality
	bound := fmt.Sprintf("at least %d", card.Min)
	if card.Max != webtemplate.Unbounded {
		bound = fmt.Sprintf("between %d and %d", card.Min, card.Max)
	}
	return fmt.Sprintf("%d of {%s} populated, %s required", len(status.Populated), strings.Join(card.IDs, ", "), bound)
}
