package datavalue

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Part is one FLAT primitive of a split value.
type Part struct {
	Suffix string
	Value  any
}

// PartError reports a suffix whose primitive cannot be converted into the
// target value.
type PartError struct {
	Kind   Kind
	Suffix string
	Value  any
	Reason string
}

func (e *PartError) Error() string {
	suffix := e.Suffix
	if suffix == "" {
		suffix = "<value>"
	}
	return fmt.Sprintf("datavalue: %s part %q: %s (got %v)", e.Kind, suffix, e.Reason, e.Value)
}

// Split returns the non-empty primitives of v for the given parts, in parts
// order. Nil and empty values yield nothing.
func Split(v Value, parts []string) []Part {
	if v == nil || v.IsEmpty() {
		return nil
	}
	out := make([]Part, 0, len(parts))
	for _, suffix := range parts {
		if raw, ok := v.Part(suffix); ok {
			out = append(out, Part{Suffix: suffix, Value: raw})
		}
	}
	return out
}

// FromParts recombines suffix-keyed primitives into a Value of kind. It
// returns nil when every part is empty.
func FromParts(kind Kind, parts map[string]any) (Value, error) {
	empty := true
	for _, raw := range parts {
		if !isEmptyPrimitive(raw) {
			empty = false
			break
		}
	}
	if empty {
		return nil, nil
	}

	r := reader{kind: kind, parts: parts}
	var v Value
	switch kind {
	case KindText:
		v = Text{Value: r.text(SuffixNone)}
	case KindCodedText:
		v = CodedText{
			Code:        r.text(SuffixCode),
			Value:       r.text(SuffixValue),
			Terminology: r.text(SuffixTerminology),
			Ordinal:     r.integer(SuffixOrdinal),
		}
	case KindQuantity:
		v = Quantity{Magnitude: r.number(SuffixMagnitude), Unit: r.text(SuffixUnit)}
	case KindCount:
		n := r.number(SuffixNone)
		if n != "" {
			if _, err := n.Int64(); err != nil {
				r.fail(SuffixNone, n, "count must be an integer")
			}
		}
		v = Count{Value: n}
	case KindProportion:
		v = Proportion{
			Numerator:   r.number(SuffixNumerator),
			Denominator: r.number(SuffixDenominator),
			Type:        r.integer(SuffixType),
		}
	case KindBoolean:
		v = Boolean{Value: r.boolean(SuffixNone)}
	case KindTemporal:
		v = Temporal{Value: r.text(SuffixNone)}
	case KindParty:
		v = Party{Name: r.text(SuffixName), ID: r.text(SuffixID)}
	case KindParts:
		out := make(Parts, len(parts))
		for suffix := range parts {
			if raw, ok := r.get(suffix); ok {
				out[suffix] = raw
			}
		}
		v = out
	default:
		return nil, fmt.Errorf("datavalue: unknown kind %q", kind)
	}
	if r.err != nil {
		return nil, r.err
	}
	if extra, ok := r.unknown(); ok {
		return nil, &PartError{Kind: kind, Suffix: extra, Value: parts[extra], Reason: "suffix not supported by this value"}
	}
	return v, nil
}

type reader struct {
	kind  Kind
	parts map[string]any
	seen  []string
	err   error
}

func (r *reader) get(suffix string) (any, bool) {
	r.seen = append(r.seen, suffix)
	raw, ok := r.parts[suffix]
	if !ok || isEmptyPrimitive(raw) {
		return nil, false
	}
	return raw, true
}

func (r *reader) fail(suffix string, raw any, reason string) {
	if r.err == nil {
		r.err = &PartError{Kind: r.kind, Suffix: suffix, Value: raw, Reason: reason}
	}
}

func (r *reader) text(suffix string) string {
	raw, ok := r.get(suffix)
	if !ok {
		return ""
	}
	s, isString := raw.(string)
	if !isString {
		r.fail(suffix, raw, "expected a string")
		return ""
	}
	return s
}

func (r *reader) number(suffix string) json.Number {
	raw, ok := r.get(suffix)
	if !ok {
		return ""
	}
	n, ok := ToNumber(raw)
	if !ok {
		r.fail(suffix, raw, "expected a number")
		return ""
	}
	return n
}

func (r *reader) integer(suffix string) *int {
	n := r.number(suffix)
	if n == "" {
		return nil
	}
	i, err := strconv.Atoi(n.String())
	if err != nil {
		r.fail(suffix, n, "expected an integer")
		return nil
	}
	return &i
}

func (r *reader) boolean(suffix string) bool {
	raw, ok := r.get(suffix)
	if !ok {
		return false
	}
	switch b := raw.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			r.fail(suffix, raw, "expected a boolean")
		}
		return parsed
	}
	r.fail(suffix, raw, "expected a boolean")
	return false
}

// unknown returns the first non-empty suffix that was never read. The
// unsuffixed part is reported as "".
func (r *reader) unknown() (string, bool) {
	for _, suffix := range sortedKeys(r.parts) {
		if isEmptyPrimitive(r.parts[suffix]) || contains(r.seen, suffix) {
			continue
		}
		return suffix, true
	}
	return "", false
}

// ToNumber converts a decoded primitive into a json.Number. Strings must hold
// a valid JSON number; floats are formatted in their shortest form.
func ToNumber(raw any) (json.Number, bool) {
	switch n := raw.(type) {
	case json.Number:
		return n, validNumber(string(n))
	case string:
		trimmed := strings.TrimSpace(n)
		return json.Number(trimmed), validNumber(trimmed)
	case int:
		return json.Number(strconv.Itoa(n)), true
	case int8:
		return json.Number(strconv.FormatInt(int64(n), 10)), true
	case int16:
		return json.Number(strconv.FormatInt(int64(n), 10)), true
	case int32:
		return json.Number(strconv.FormatInt(int64(n), 10)), true
	case int64:
		return json.Number(strconv.FormatInt(n, 10)), true
	case uint:
		return json.Number(strconv.FormatUint(uint64(n), 10)), true
	case uint8:
		return json.Number(strconv.FormatUint(uint64(n), 10)), true
	case uint16:
		return json.Number(strconv.FormatUint(uint64(n), 10)), true
	case uint32:
		return json.Number(strconv.FormatUint(uint64(n), 10)), true
	case uint64:
		return json.Number(strconv.FormatUint(n, 10)), true
	case float32:
		return formatFloat(float64(n), 32)
	case float64:
		return formatFloat(n, 64)
	}
	return "", false
}

func formatFloat(f float64, bits int) (json.Number, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	return json.Number(strconv.FormatFloat(f, 'f', -1, bits)), true
}

func validNumber(s string) bool {
	if s == "" {
		return false
	}
	return json.Valid([]byte(s)) && s[0] != '"' && s[0] != '[' && s[0] != '{' && s != "true" && s != "false" && s != "null"
}

func isEmptyPrimitive(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case json.Number:
		return v == ""
	}
	return false
}

func primitiveString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(raw)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
