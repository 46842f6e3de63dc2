package form

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-ehrform/pkg/datavalue"
	"github.com/goliatone/go-ehrform/pkg/flat"
	"github.com/goliatone/go-ehrform/pkg/flatpath"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

// wanted is the desired state for one instance, built from the document.
type wanted struct {
	children map[*webtemplate.Node]map[int]*wanted
	parts    map[string]any
}

func (w *wanted) child(node *webtemplate.Node, index int) *wanted {
	if w.children == nil {
		w.children = make(map[*webtemplate.Node]map[int]*wanted)
	}
	byIndex := w.children[node]
	if byIndex == nil {
		byIndex = make(map[int]*wanted)
		w.children[node] = byIndex
	}
	next := byIndex[index]
	if next == nil {
		next = &wanted{}
		byIndex[index] = next
	}
	return next
}

// Hydrate reconciles the forest with doc. For every group the desired
// indices are those present in doc plus 0..min-1; other instances are
// removed, missing ones are added and every bound field is set from its
// keys or cleared. Keys that match no node are reported, never dropped
// silently, and do not stop the remaining keys from applying.
func (f *Form) Hydrate(doc flat.Document) *HydrateReport {
	report := &HydrateReport{}
	root := &wanted{}

	for _, key := range doc.Keys() {
		if err := f.place(root, key, doc[key]); err != nil {
			f.logger.Warn().Str("key", key).Str("reason", err.Reason).Msg("unknown FLAT key")
			report.Unknown = append(report.Unknown, err)
		}
	}

	f.reconcile(f.root, root, report)
	return report
}

func (f *Form) place(root *wanted, key string, value any) *UnknownPathError {
	parsed, err := flatpath.ParseKey(key)
	if err != nil {
		return &UnknownPathError{Key: key, Reason: "malformed key", Err: err}
	}
	node, ok := f.bound[parsed.Path]
	if !ok {
		return &UnknownPathError{Key: key, Reason: "no template node has this path"}
	}
	known := false
	for _, suffix := range datavalue.PartsFor(node) {
		if suffix == parsed.Suffix {
			known = true
			break
		}
	}
	if !known {
		return &UnknownPathError{Key: key, Reason: fmt.Sprintf("suffix %q is not an input of %s", parsed.Suffix, node.IDPath())}
	}

	chain := node.Ancestors()
	var repeating []*webtemplate.Node
	for _, n := range chain {
		if n.IsRepeating() {
			repeating = append(repeating, n)
		}
	}
	if len(parsed.Marks) != len(repeating) {
		return &UnknownPathError{Key: key, Reason: fmt.Sprintf("expected %d repeat indices, found %d", len(repeating), len(parsed.Marks))}
	}
	positions := make(map[*webtemplate.Node]int, len(repeating))
	indices := make([]flatpath.Index, len(repeating))
	for k, n := range repeating {
		mark := parsed.Marks[k]
		if mark.Prefix != n.AQLPath {
			return &UnknownPathError{Key: key, Reason: fmt.Sprintf("repeat index misplaced for %s", n.IDPath())}
		}
		positions[n] = mark.Pos
		indices[k] = flatpath.Index{ID: n.ID, Pos: mark.Pos}
	}
	resolved, rerr := flatpath.Resolve(node, indices)
	if rerr != nil {
		return &UnknownPathError{Key: key, Reason: "cannot resolve", Err: rerr}
	}
	if flatpath.Key(resolved, parsed.Suffix) != key {
		return &UnknownPathError{Key: key, Reason: "key is not in canonical form"}
	}

	target := root
	for _, n := range chain[1:] {
		target = target.child(n, positions[n])
	}
	if target.parts == nil {
		target.parts = make(map[string]any)
	}
	target.parts[parsed.Suffix] = value
	return nil
}

func (f *Form) reconcile(inst *Instance, want *wanted, report *HydrateReport) {
	for _, group := range inst.groups {
		observed := want.children[group.node]

		desired := make(map[int]struct{}, len(observed))
		if group.node.IsRepeating() {
			for idx := range observed {
				desired[idx] = struct{}{}
			}
			for idx := 0; idx < group.node.Min; idx++ {
				desired[idx] = struct{}{}
			}
		} else {
			desired[0] = struct{}{}
		}

		for _, idx := range group.Indices() {
			if _, keep := desired[idx]; keep {
				continue
			}
			if err := group.Remove(idx); err == nil {
				report.Removed++
			}
		}

		order := make([]int, 0, len(desired))
		for idx := range desired {
			order = append(order, idx)
		}
		sort.Ints(order)
		for _, idx := range order {
			_, existed := group.Instance(idx)
			child, err := group.Ensure(idx)
			if err != nil {
				report.Fields = append(report.Fields, &FieldError{Node: group.node.IDPath(), Err: err})
				continue
			}
			if !existed {
				report.Added++
			}
			next := observed[idx]
			if next == nil {
				next = &wanted{}
			}
			f.reconcile(child, next, report)
		}
	}

	if inst.field == nil {
		return
	}
	if len(want.parts) == 0 {
		inst.field.Clear()
		return
	}
	path, _ := inst.Path()
	value, err := datavalue.FromParts(datavalue.KindFor(inst.node), want.parts)
	if err != nil {
		inst.field.Clear()
		report.Fields = append(report.Fields, &FieldError{Node: inst.node.IDPath(), Path: path, Err: err})
		return
	}
	if err := inst.field.SetValue(value); err != nil {
		report.Fields = append(report.Fields, &FieldError{Node: inst.node.IDPath(), Path: path, Err: err})
	}
}
