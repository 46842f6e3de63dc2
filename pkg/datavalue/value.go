package datavalue

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind identifies the concrete Value type for a node.
type Kind string

const (
	KindText       Kind = "text"
	KindCodedText  Kind = "coded_text"
	KindQuantity   Kind = "quantity"
	KindCount      Kind = "count"
	KindProportion Kind = "proportion"
	KindBoolean    Kind = "boolean"
	KindTemporal   Kind = "temporal"
	KindParty      Kind = "party"
	KindParts      Kind = "parts"
)

// Suffix names used by the FLAT format.
const (
	SuffixNone        = ""
	SuffixCode        = "code"
	SuffixValue       = "value"
	SuffixTerminology = "terminology"
	SuffixOrdinal     = "ordinal"
	SuffixMagnitude   = "magnitude"
	SuffixUnit        = "unit"
	SuffixNumerator   = "numerator"
	SuffixDenominator = "denominator"
	SuffixType        = "type"
	SuffixName        = "name"
	SuffixID          = "id"
)

// Value is the structured content of a bound field. Part returns the FLAT
// primitive (string, bool or json.Number) stored under suffix and false when
// that part is empty or unknown to the value.
type Value interface {
	Kind() Kind
	Part(suffix string) (any, bool)
	IsEmpty() bool
}

// Text is a plain DV_TEXT style value.
type Text struct {
	Value string
}

func (Text) Kind() Kind { return KindText }

func (v Text) Part(suffix string) (any, bool) {
	if suffix == SuffixNone {
		return str(v.Value)
	}
	return nil, false
}

func (v Text) IsEmpty() bool { return v.Value == "" }

// CodedText covers DV_CODED_TEXT, DV_ORDINAL, DV_SCALE and CODE_PHRASE.
type CodedText struct {
	Code        string
	Value       string
	Terminology string
	Ordinal     *int
}

func (CodedText) Kind() Kind { return KindCodedText }

func (v CodedText) Part(suffix string) (any, bool) {
	switch suffix {
	case SuffixCode:
		return str(v.Code)
	case SuffixValue:
		return str(v.Value)
	case SuffixTerminology:
		return str(v.Terminology)
	case SuffixOrdinal:
		if v.Ordinal == nil {
			return nil, false
		}
		return json.Number(strconv.Itoa(*v.Ordinal)), true
	}
	return nil, false
}

func (v CodedText) IsEmpty() bool {
	return v.Code == "" && v.Value == "" && v.Terminology == "" && v.Ordinal == nil
}

// Quantity is a DV_QUANTITY magnitude/unit pair. The magnitude keeps its
// literal form.
type Quantity struct {
	Magnitude json.Number
	Unit      string
}

func (Quantity) Kind() Kind { return KindQuantity }

func (v Quantity) Part(suffix string) (any, bool) {
	switch suffix {
	case SuffixMagnitude:
		return num(v.Magnitude)
	case SuffixUnit:
		return str(v.Unit)
	}
	return nil, false
}

func (v Quantity) IsEmpty() bool { return v.Magnitude == "" && v.Unit == "" }

// Count is a DV_COUNT integer.
type Count struct {
	Value json.Number
}

func (Count) Kind() Kind { return KindCount }

func (v Count) Part(suffix string) (any, bool) {
	if suffix == SuffixNone {
		return num(v.Value)
	}
	return nil, false
}

func (v Count) IsEmpty() bool { return v.Value == "" }

// Proportion is a DV_PROPORTION ratio.
type Proportion struct {
	Numerator   json.Number
	Denominator json.Number
	Type        *int
}

func (Proportion) Kind() Kind { return KindProportion }

func (v Proportion) Part(suffix string) (any, bool) {
	switch suffix {
	case SuffixNumerator:
		return num(v.Numerator)
	case SuffixDenominator:
		return num(v.Denominator)
	case SuffixType:
		if v.Type == nil {
			return nil, false
		}
		return json.Number(strconv.Itoa(*v.Type)), true
	}
	return nil, false
}

func (v Proportion) IsEmpty() bool {
	return v.Numerator == "" && v.Denominator == "" && v.Type == nil
}

// Boolean is a DV_BOOLEAN. A Boolean is never empty; an unanswered boolean
// field holds a nil Value instead.
type Boolean struct {
	Value bool
}

func (Boolean) Kind() Kind { return KindBoolean }

func (v Boolean) Part(suffix string) (any, bool) {
	if suffix == SuffixNone {
		return v.Value, true
	}
	return nil, false
}

func (Boolean) IsEmpty() bool { return false }

// Temporal holds an ISO-8601 date, time, date-time or duration verbatim.
type Temporal struct {
	Value string
}

func (Temporal) Kind() Kind { return KindTemporal }

func (v Temporal) Part(suffix string) (any, bool) {
	if suffix == SuffixNone {
		return str(v.Value)
	}
	return nil, false
}

func (v Temporal) IsEmpty() bool { return v.Value == "" }

// Party is a PARTY_PROXY name/id pair.
type Party struct {
	Name string
	ID   string
}

func (Party) Kind() Kind { return KindParty }

func (v Party) Part(suffix string) (any, bool) {
	switch suffix {
	case SuffixName:
		return str(v.Name)
	case SuffixID:
		return str(v.ID)
	}
	return nil, false
}

func (v Party) IsEmpty() bool { return v.Name == "" && v.ID == "" }

// Parts is the catch-all value for rmTypes without a dedicated type. It maps
// suffix to primitive and never drops a part.
type Parts map[string]any

func (Parts) Kind() Kind { return KindParts }

func (v Parts) Part(suffix string) (any, bool) {
	raw, ok := v[suffix]
	if !ok || isEmptyPrimitive(raw) {
		return nil, false
	}
	return raw, true
}

func (v Parts) IsEmpty() bool {
	for _, raw := range v {
		if !isEmptyPrimitive(raw) {
			return false
		}
	}
	return true
}

// Format renders a value for display, e.g. in terminal prompts or inspect
// output.
func Format(v Value) string {
	if v == nil || v.IsEmpty() {
		return ""
	}
	switch val := v.(type) {
	case Text:
		return val.Value
	case CodedText:
		label := val.Value
		if label == "" {
			label = val.Code
		}
		if val.Code != "" && val.Value != "" && val.Code != val.Value {
			label += " (" + val.Code + ")"
		}
		return label
	case Quantity:
		return strings.TrimSpace(val.Magnitude.String() + " " + val.Unit)
	case Count:
		return val.Value.String()
	case Proportion:
		return val.Numerator.String() + "/" + val.Denominator.String()
	case Boolean:
		return strconv.FormatBool(val.Value)
	case Temporal:
		return val.Value
	case Party:
		if val.ID != "" {
			return val.Name + " <" + val.ID + ">"
		}
		return val.Name
	case Parts:
		keys := sortedKeys(val)
		out := make([]string, 0, len(keys))
		for _, key := range keys {
			if raw, ok := val.Part(key); ok {
				out = append(out, key+"="+primitiveString(raw))
			}
		}
		return strings.Join(out, " ")
	}
	return ""
}

func str(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	return s, true
}

func num(n json.Number) (any, bool) {
	if n == "" {
		return nil, false
	}
	return n, true
}
