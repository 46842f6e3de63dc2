package form

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-ehrform/pkg/binding"
	"github.com/goliatone/go-ehrform/pkg/datavalue"
	"github.com/goliatone/go-ehrform/pkg/flatpath"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

// Instance is one occurrence of a template node. It owns one Group per
// child node and, for bound nodes, one field.
type Instance struct {
	form   *Form
	id     string
	node   *webtemplate.Node
	index  int
	parent *Instance
	groups []*Group

	field       binding.Field
	unsubscribe func()
}

func (i *Instance) ID() string              { return i.id }
func (i *Instance) Node() *webtemplate.Node { return i.node }
func (i *Instance) Index() int              { return i.index }
func (i *Instance) Parent() *Instance       { return i.parent }

// Field returns the bound field, or nil for structural nodes.
func (i *Instance) Field() binding.Field { return i.field }

// Groups returns the child groups in template order.
func (i *Instance) Groups() []*Group {
	return append([]*Group(nil), i.groups...)
}

// Group returns the group for the direct child with id.
func (i *Instance) Group(childID string) (*Group, bool) {
	for _, group := range i.groups {
		if group.node.ID == childID {
			return group, true
		}
	}
	return nil, false
}

// Indices returns the repeat indices of the instance chain, root first.
func (i *Instance) Indices() []flatpath.Index {
	var chain []*Instance
	for cur := i; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	out := make([]flatpath.Index, 0, len(chain))
	for k := len(chain) - 1; k >= 0; k-- {
		if chain[k].node.IsRepeating() {
			out = append(out, flatpath.Index{ID: chain[k].node.ID, Pos: chain[k].index})
		}
	}
	return out
}

// Path returns the resolved aqlPath of the instance.
func (i *Instance) Path() (string, error) {
	return flatpath.Resolve(i.node, i.Indices())
}

// Value returns the field value, nil when empty or structural.
func (i *Instance) Value() datavalue.Value {
	if i.field == nil {
		return nil
	}
	return i.field.Value()
}

// SetValue assigns the field value.
func (i *Instance) SetValue(v datavalue.Value) error {
	if i.field == nil {
		return fmt.Errorf("form: %s holds no value", i.node.IDPath())
	}
	return i.field.SetValue(v)
}

// Populated reports whether any bound field in the instance subtree holds a
// non-empty value.
func (i *Instance) Populated() bool {
	if v := i.Value(); v != nil && !v.IsEmpty() {
		return true
	}
	for _, group := range i.groups {
		if group.Populated() {
			return true
		}
	}
	return false
}

func (i *Instance) release() {
	for _, group := range i.groups {
		for _, child := range group.instances {
			child.release()
		}
	}
	if i.unsubscribe != nil {
		i.unsubscribe()
	}
	if i.field != nil {
		path, _ := i.Path()
		i.form.factory.Release(binding.Slot{InstanceID: i.id, Node: i.node, Index: i.index, Path: path}, i.field)
	}
}

// Group holds the live instances of one child node under one owner
// instance.
type Group struct {
	node      *webtemplate.Node
	owner     *Instance
	instances []*Instance
	next      int
}

func (g *Group) Node() *webtemplate.Node { return g.node }
func (g *Group) Owner() *Instance        { return g.owner }
func (g *Group) Len() int                { return len(g.instances) }

// Instances returns the live instances sorted by index.
func (g *Group) Instances() []*Instance {
	return append([]*Instance(nil), g.instances...)
}

// Indices returns the live indices in ascending order.
func (g *Group) Indices() []int {
	out := make([]int, len(g.instances))
	for k, inst := range g.instances {
		out[k] = inst.index
	}
	return out
}

// Instance returns the instance with the given index.
func (g *Group) Instance(index int) (*Instance, bool) {
	for _, inst := range g.instances {
		if inst.index == index {
			return inst, true
		}
	}
	return nil, false
}

// Populated reports whether any instance of the group is populated.
func (g *Group) Populated() bool {
	for _, inst := range g.instances {
		if inst.Populated() {
			return true
		}
	}
	return false
}

// Add appends an instance with the next unused index. Max is advisory and
// not enforced here; validation reports overflow.
func (g *Group) Add() (*Instance, error) {
	if !g.node.IsRepeating() {
		return nil, fmt.Errorf("form: %s does not repeat", g.node.IDPath())
	}
	inst, err := g.create(g.next)
	if err != nil {
		return nil, err
	}
	g.announce(inst)
	return inst, nil
}

// Ensure returns the instance with index, creating it when missing.
func (g *Group) Ensure(index int) (*Instance, error) {
	if inst, ok := g.Instance(index); ok {
		return inst, nil
	}
	if index < 0 {
		return nil, fmt.Errorf("form: negative index %d for %s", index, g.node.IDPath())
	}
	if !g.node.IsRepeating() && index != 0 {
		return nil, fmt.Errorf("form: %s does not repeat", g.node.IDPath())
	}
	inst, err := g.create(index)
	if err != nil {
		return nil, err
	}
	g.announce(inst)
	return inst, nil
}

// ErrNoInstance is returned by Remove for unknown indices.
var ErrNoInstance = errors.New("form: no such instance")

// Remove deletes the instance with index. Remaining indices are unchanged
// and the index is never reused by Add.
func (g *Group) Remove(index int) error {
	if !g.node.IsRepeating() {
		return fmt.Errorf("form: %s does not repeat", g.node.IDPath())
	}
	pos := -1
	for k, inst := range g.instances {
		if inst.index == index {
			pos = k
			break
		}
	}
	if pos < 0 {
		return fmt.Errorf("%w: %s[%d]", ErrNoInstance, g.node.IDPath(), index)
	}
	inst := g.instances[pos]
	g.instances = append(g.instances[:pos], g.instances[pos+1:]...)
	inst.release()

	f := g.owner.form
	f.logger.Debug().
		Str("node", g.node.IDPath()).
		Int("index", index).
		Str("instance", inst.id).
		Msg("repeat instance removed")
	f.emit(Event{Type: InstanceRemoved, Instance: inst})
	return nil
}

func (g *Group) create(index int) (*Instance, error) {
	inst, err := g.owner.form.newInstance(g.node, index, g.owner)
	if err != nil {
		return nil, err
	}
	g.instances = append(g.instances, inst)
	sort.SliceStable(g.instances, func(a, b int) bool {
		return g.instances[a].index < g.instances[b].index
	})
	if index >= g.next {
		g.next = index + 1
	}
	return inst, nil
}

func (g *Group) announce(inst *Instance) {
	f := g.owner.form
	f.logger.Debug().
		Str("node", g.node.IDPath()).
		Int("index", inst.index).
		Str("instance", inst.id).
		Msg("repeat instance added")
	f.emit(Event{Type: InstanceAdded, Instance: inst})
}
