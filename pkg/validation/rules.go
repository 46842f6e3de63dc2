// Package validation derives per-node constraints from a Web Template and
// checks live forms against them. The engine never enforces these rules on
// its own; renderers and callers decide what to do with the issues.
package validation

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

// Rule kinds.
const (
	RuleRequired    = "required"
	RuleMin         = "min"
	RuleMax         = "max"
	RulePrecision   = "precision"
	RuleEnum        = "enum"
	RulePattern     = "pattern"
	RuleOccurrences = "occurrences"
	RuleCardinality = "cardinality"
)

// Rule is a single constraint. Numeric bounds keep their literal threshold in
// Params["value"] and set Params["exclusive"] to "true" for strict
// comparisons. Params["suffix"] names the value part the rule applies to and
// Params["unit"] scopes magnitude bounds to one unit.
type Rule struct {
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// Rules returns the constraints declared for node.
func Rules(node *webtemplate.Node) []Rule {
	if node == nil {
		return nil
	}
	var rules []Rule
	if node.Min >= 1 && node.IsBound() {
		rules = append(rules, Rule{Kind: RuleRequired})
	}
	if node.IsRepeating() {
		rules = append(rules, Rule{Kind: RuleOccurrences, Params: map[string]string{
			"min": strconv.Itoa(node.Min),
			"max": strconv.Itoa(node.Max),
		}})
	}

	for _, in := range node.Inputs {
		if in.Validation != nil {
			rules = append(rules, intervalRules(in.Validation.Range, in.Suffix, "")...)
			if p := in.Validation.Precision; p != nil && p.Max != nil {
				rules = append(rules, Rule{Kind: RulePrecision, Params: map[string]string{
					"suffix": in.Suffix,
					"max":    p.Max.String(),
				}})
			}
			if pattern := strings.TrimSpace(in.Validation.Pattern); pattern != "" {
				rules = append(rules, Rule{Kind: RulePattern, Params: map[string]string{
					"suffix":  in.Suffix,
					"pattern": pattern,
				}})
			}
		}
		if len(in.List) > 0 && !in.ListOpen {
			codes := make([]string, len(in.List))
			for i, item := range in.List {
				codes[i] = item.Value
			}
			rules = append(rules, Rule{Kind: RuleEnum, Params: map[string]string{
				"suffix": in.Suffix,
				"values": strings.Join(codes, "\n"),
			}})
		}
		for _, item := range in.List {
			if item.Validation != nil {
				rules = append(rules, intervalRules(item.Validation.Range, "magnitude", item.Value)...)
			}
		}
	}

	if len(rules) == 0 {
		return nil
	}
	return rules
}

func intervalRules(interval *webtemplate.Interval, suffix, unit string) []Rule {
	if interval == nil {
		return nil
	}
	var out []Rule
	add := func(kind string, bound string, exclusive bool) {
		params := map[string]string{"suffix": suffix, "value": bound}
		if exclusive {
			params["exclusive"] = "true"
		}
		if unit != "" {
			params["unit"] = unit
		}
		out = append(out, Rule{Kind: kind, Params: params})
	}
	if interval.Min != nil {
		add(RuleMin, interval.Min.String(), interval.MinOp == ">")
	}
	if interval.Max != nil {
		add(RuleMax, interval.Max.String(), interval.MaxOp == "<")
	}
	return out
}
