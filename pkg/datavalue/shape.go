package datavalue

import (
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

var kindParts = map[Kind][]string{
	KindText:       {SuffixNone},
	KindCodedText:  {SuffixCode, SuffixValue, SuffixTerminology, SuffixOrdinal},
	KindQuantity:   {SuffixMagnitude, SuffixUnit},
	KindCount:      {SuffixNone},
	KindProportion: {SuffixNumerator, SuffixDenominator, SuffixType},
	KindBoolean:    {SuffixNone},
	KindTemporal:   {SuffixNone},
	KindParty:      {SuffixName, SuffixID},
}

// PartsFor returns the ordered suffixes a node's value is stored under.
// Declared input suffixes win; otherwise the parts are implied by rmType. A
// single empty suffix means the value is stored under the bare path.
func PartsFor(node *webtemplate.Node) []string {
	if node == nil {
		return nil
	}
	if declared := declaredSuffixes(node); len(declared) > 0 {
		return declared
	}
	switch node.RMType {
	case webtemplate.RMOrdinal, webtemplate.RMScale:
		return []string{SuffixCode, SuffixValue, SuffixOrdinal}
	case webtemplate.RMCodedText:
		return []string{SuffixCode, SuffixValue}
	case webtemplate.RMCodePhrase:
		return []string{SuffixCode, SuffixTerminology}
	case webtemplate.RMPartyProxy, webtemplate.RMPartyIdentified:
		return []string{SuffixName, SuffixID}
	}
	return []string{SuffixNone}
}

// KindFor picks the Value kind for a node. When the node's parts do not fit
// the rmType's dedicated kind the generic Parts kind is used so no part is
// lost.
func KindFor(node *webtemplate.Node) Kind {
	if node == nil {
		return KindParts
	}
	kind := rmKind(node.RMType)
	if kind == KindParts {
		return kind
	}
	allowed := kindParts[kind]
	for _, suffix := range PartsFor(node) {
		if !contains(allowed, suffix) {
			return KindParts
		}
	}
	return kind
}

func rmKind(t webtemplate.RMType) Kind {
	switch t {
	case webtemplate.RMText, webtemplate.RMURI:
		return KindText
	case webtemplate.RMCodedText, webtemplate.RMOrdinal, webtemplate.RMScale, webtemplate.RMCodePhrase:
		return KindCodedText
	case webtemplate.RMQuantity:
		return KindQuantity
	case webtemplate.RMCount:
		return KindCount
	case webtemplate.RMProportion:
		return KindProportion
	case webtemplate.RMBoolean:
		return KindBoolean
	case webtemplate.RMDateTime, webtemplate.RMDate, webtemplate.RMTime, webtemplate.RMDuration:
		return KindTemporal
	case webtemplate.RMPartyProxy, webtemplate.RMPartyIdentified:
		return KindParty
	}
	return KindParts
}

func declaredSuffixes(node *webtemplate.Node) []string {
	var out []string
	suffixed := false
	for _, in := range node.Inputs {
		if in.Suffix != "" {
			suffixed = true
		}
		if !contains(out, in.Suffix) {
			out = append(out, in.Suffix)
		}
	}
	if !suffixed {
		return nil
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
