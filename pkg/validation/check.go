package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-ehrform/pkg/datavalue"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

// Issue is one violation. Path is the resolved FLAT key when known.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Node    string `json:"node,omitempty"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	where := i.Path
	if where == "" {
		where = i.Node
	}
	return fmt.Sprintf("%s: %s", where, i.Message)
}

// CheckValue applies the value-level rules of node to v. Presence rules
// (required, occurrences) are not evaluated here.
func CheckValue(node *webtemplate.Node, v datavalue.Value) []Issue {
	if node == nil || v == nil || v.IsEmpty() {
		return nil
	}
	var issues []Issue
	report := func(rule Rule, suffix, format string, args ...any) {
		issues = append(issues, Issue{
			Path:    suffixKey(suffix),
			Node:    node.IDPath(),
			Rule:    rule.Kind,
			Message: fmt.Sprintf(format, args...),
		})
	}

	for _, rule := range Rules(node) {
		suffix := rule.Params["suffix"]
		raw, ok := part(v, suffix)
		if !ok {
			continue
		}
		if unit := rule.Params["unit"]; unit != "" {
			if got, _ := v.Part(datavalue.SuffixUnit); got != unit {
				continue
			}
		}

		switch rule.Kind {
		case RuleMin, RuleMax:
			value, okValue := toFloat(raw)
			bound, okBound := strconv.ParseFloat(rule.Params["value"], 64)
			if !okValue || okBound != nil {
				continue
			}
			exclusive := rule.Params["exclusive"] == "true"
			if rule.Kind == RuleMin && (value < bound || (exclusive && value == bound)) {
				report(rule, suffix, "%v is below the minimum %s", raw, describeBound(rule, ">"))
			}
			if rule.Kind == RuleMax && (value > bound || (exclusive && value == bound)) {
				report(rule, suffix, "%v is above the maximum %s", raw, describeBound(rule, "<"))
			}
		case RulePrecision:
			limit, err := strconv.Atoi(rule.Params["max"])
			if err != nil || limit < 0 {
				continue
			}
			if n, isNum := raw.(json.Number); isNum && decimals(n.String()) > limit {
				report(rule, suffix, "%s has more than %d decimal places", n, limit)
			}
		case RuleEnum:
			code := fmt.Sprint(raw)
			allowed := strings.Split(rule.Params["values"], "\n")
			if !containsString(allowed, code) {
				report(rule, suffix, "%q is not one of the permitted codes", code)
			}
		case RulePattern:
			re, err := regexp.Compile(rule.Params["pattern"])
			if err != nil {
				continue
			}
			if s, isString := raw.(string); isString && !re.MatchString(s) {
				report(rule, suffix, "%q does not match %s", s, rule.Params["pattern"])
			}
		}
	}
	return issues
}

// part maps a rule suffix onto the value. Unsuffixed inputs of coded values
// constrain the code.
func part(v datavalue.Value, suffix string) (any, bool) {
	if suffix == "" && v.Kind() == datavalue.KindCodedText {
		suffix = datavalue.SuffixCode
	}
	return v.Part(suffix)
}

func describeBound(rule Rule, strict string) string {
	op := strict + "="
	if rule.Params["exclusive"] == "true" {
		op = strict
	}
	if unit := rule.Params["unit"]; unit != "" {
		return fmt.Sprintf("%s %s for %s", op, rule.Params["value"], unit)
	}
	return op + " " + rule.Params["value"]
}

func suffixKey(suffix string) string {
	if suffix == "" {
		return ""
	}
	return "|" + suffix
}

func toFloat(raw any) (float64, bool) {
	n, ok := datavalue.ToNumber(raw)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	return f, err == nil
}

func decimals(literal string) int {
	if strings.ContainsAny(literal, "eE") {
		return 0
	}
	dot := strings.IndexByte(literal, '.')
	if dot < 0 {
		return 0
	}
	return len(literal) - dot - 1
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
