package webtemplate

// RMType names an openEHR reference-model type as it appears in the Web
// Template "rmType" attribute. Unknown values are kept verbatim.
type RMType string

const (
	RMComposition   RMType = "COMPOSITION"
	RMEventContext  RMType = "EVENT_CONTEXT"
	RMSection       RMType = "SECTION"
	RMObservation   RMType = "OBSERVATION"
	RMEvaluation    RMType = "EVALUATION"
	RMInstruction   RMType = "INSTRUCTION"
	RMAction        RMType = "ACTION"
	RMAdminEntry    RMType = "ADMIN_ENTRY"
	RMHistory       RMType = "HISTORY"
	RMEvent         RMType = "EVENT"
	RMPointEvent    RMType = "POINT_EVENT"
	RMIntervalEvent RMType = "INTERVAL_EVENT"
	RMItemTree      RMType = "ITEM_TREE"
	RMCluster       RMType = "CLUSTER"
	RMElement       RMType = "ELEMENT"

	RMText            RMType = "DV_TEXT"
	RMCodedText       RMType = "DV_CODED_TEXT"
	RMOrdinal         RMType = "DV_ORDINAL"
	RMScale           RMType = "DV_SCALE"
	RMQuantity        RMType = "DV_QUANTITY"
	RMCount           RMType = "DV_COUNT"
	RMProportion      RMType = "DV_PROPORTION"
	RMBoolean         RMType = "DV_BOOLEAN"
	RMDateTime        RMType = "DV_DATE_TIME"
	RMDate            RMType = "DV_DATE"
	RMTime            RMType = "DV_TIME"
	RMDuration        RMType = "DV_DURATION"
	RMIdentifier      RMType = "DV_IDENTIFIER"
	RMURI             RMType = "DV_URI"
	RMMultimedia      RMType = "DV_MULTIMEDIA"
	RMCodePhrase      RMType = "CODE_PHRASE"
	RMPartyProxy      RMType = "PARTY_PROXY"
	RMPartyIdentified RMType = "PARTY_IDENTIFIED"
)

// Category groups reference-model types by the role they play in a form.
type Category int

const (
	// CategoryStructural covers containers without clinical meaning of their
	// own (compositions, sections, histories, item trees, clusters).
	CategoryStructural Category = iota
	// CategoryEntry covers clinical entries (observations, evaluations, ...).
	CategoryEntry
	// CategoryEvent covers history events.
	CategoryEvent
	// CategoryElement covers ELEMENT wrappers around a data value.
	CategoryElement
	// CategoryValue covers DV_* data values.
	CategoryValue
	// CategoryContext covers metadata types filled from composition context.
	CategoryContext
)

// String returns the lower-case category name.
func (c Category) String() string {
	switch c {
	case CategoryStructural:
		return "structural"
	case CategoryEntry:
		return "entry"
	case CategoryEvent:
		return "event"
	case CategoryElement:
		return "element"
	case CategoryValue:
		return "value"
	case CategoryContext:
		return "context"
	default:
		return "unknown"
	}
}

// Category classifies the rmType.
func (t RMType) Category() Category {
	switch t {
	case RMObservation, RMEvaluation, RMInstruction, RMAction, RMAdminEntry:
		return CategoryEntry
	case RMEvent, RMPointEvent, RMIntervalEvent:
		return CategoryEvent
	case RMElement:
		return CategoryElement
	case RMCodePhrase, RMPartyProxy, RMPartyIdentified:
		return CategoryContext
	}
	if len(t) > 3 && t[:3] == "DV_" {
		return CategoryValue
	}
	return CategoryStructural
}

// IsDataValue reports whether the type is a DV_* data value.
func (t RMType) IsDataValue() bool {
	return t.Category() == CategoryValue
}
