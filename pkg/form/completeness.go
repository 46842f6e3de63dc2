package form

import "github.com/goliatone/go-ehrform/pkg/webtemplate"

// CardinalityStatus reports one cardinality group of one instance.
type CardinalityStatus struct {
	Instance    *Instance
	Cardinality webtemplate.Cardinality
	// Populated lists the ids of the group that hold a value.
	Populated []string
	Met       bool
}

// Completeness evaluates the cardinality groups of inst. A listed child
// counts as populated when any bound field below it holds a value.
func (f *Form) Completeness(inst *Instance) []CardinalityStatus {
	if inst == nil || len(inst.node.Cardinalities) == 0 {
		return nil
	}
	out := make([]CardinalityStatus, 0, len(inst.node.Cardinalities))
	for _, card := range inst.node.Cardinalities {
		status := CardinalityStatus{Instance: inst, Cardinality: card}
		for _, id := range card.IDs {
			if group, ok := inst.Group(id); ok && group.Populated() {
				status.Populated = append(status.Populated, id)
			}
		}
		count := len(status.Populated)
		status.Met = count >= card.Min && (card.Max == webtemplate.Unbounded || count <= card.Max)
		out = append(out, status)
	}
	return out
}

// Incomplete returns the unmet cardinality groups across all live
// instances.
func (f *Form) Incomplete() []CardinalityStatus {
	var out []CardinalityStatus
	_ = f.Walk(func(inst *Instance) error {
		for _, status := range f.Completeness(inst) {
			if !status.Met {
				out = append(out, status)
			}
		}
		return nil
	})
	return out
}
