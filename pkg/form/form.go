package form

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-ehrform/pkg/binding"
	"github.com/goliatone/go-ehrform/pkg/flatpath"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

// Form is a live instance forest for one Web Template.
type Form struct {
	tmpl        *webtemplate.Template
	factory     binding.Factory
	logger      zerolog.Logger
	skipContext bool
	newID       func() string

	root *Instance
	// bound maps the static aqlPath of every included bound node to it.
	bound map[string]*webtemplate.Node

	listeners    map[int]func(Event)
	nextListener int
}

// New builds the instance forest for tmpl. Repeating nodes start with min
// instances, every other node with exactly one.
func New(tmpl *webtemplate.Template, opts ...Option) (*Form, error) {
	if tmpl == nil || tmpl.Tree == nil {
		return nil, errors.New("form: template is nil")
	}
	f := &Form{
		tmpl:      tmpl,
		logger:    zerolog.Nop(),
		newID:     defaultID,
		bound:     make(map[string]*webtemplate.Node),
		listeners: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.factory == nil {
		f.factory = binding.NewMemoryFactory()
	}

	_ = webtemplate.Walk(tmpl.Tree, func(node *webtemplate.Node) error {
		if f.skipped(node) {
			return webtemplate.SkipChildren
		}
		if node.IsBound() {
			f.bound[node.AQLPath] = node
		}
		return nil
	})

	root, err := f.newInstance(tmpl.Tree, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("form: build %s: %w", tmpl.TemplateID, err)
	}
	f.root = root
	return f, nil
}

// Template returns the template the form was built from.
func (f *Form) Template() *webtemplate.Template { return f.tmpl }

// Root returns the instance of the template root.
func (f *Form) Root() *Instance { return f.root }

// Logger returns the form's logger.
func (f *Form) Logger() zerolog.Logger { return f.logger }

// Includes reports whether node takes part in the form (it is not skipped
// by WithoutContext).
func (f *Form) Includes(node *webtemplate.Node) bool {
	for _, n := range node.Ancestors() {
		if f.skipped(n) {
			return false
		}
	}
	return true
}

func (f *Form) skipped(node *webtemplate.Node) bool {
	return f.skipContext && node.InContext
}

// Walk visits every live instance depth-first, groups in template order and
// instances in index order. Returning webtemplate.SkipChildren skips the
// instance's subtree.
func (f *Form) Walk(fn func(*Instance) error) error {
	err := walkInstance(f.root, fn)
	if errors.Is(err, webtemplate.SkipChildren) {
		return nil
	}
	return err
}

func walkInstance(inst *Instance, fn func(*Instance) error) error {
	if err := fn(inst); err != nil {
		if errors.Is(err, webtemplate.SkipChildren) {
			return nil
		}
		return err
	}
	for _, group := range inst.groups {
		for _, child := range group.instances {
			if err := walkInstance(child, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Find returns the instance for idPath (relative to the root, see
// webtemplate.Lookup). positions supplies one repeat index per repeating
// node on the way down, root first.
func (f *Form) Find(idPath string, positions ...int) (*Instance, error) {
	node, err := webtemplate.Lookup(f.tmpl.Tree, idPath)
	if err != nil {
		return nil, fmt.Errorf("form: find %q: %w", idPath, err)
	}
	chain := node.Ancestors()
	current := f.root
	next := 0
	for _, step := range chain[1:] {
		group, ok := current.Group(step.ID)
		if !ok {
			return nil, fmt.Errorf("form: find %q: %q is not part of the form", idPath, step.ID)
		}
		pos := 0
		if step.IsRepeating() {
			if next >= len(positions) {
				return nil, fmt.Errorf("form: find %q: missing index for repeating %q", idPath, step.ID)
			}
			pos = positions[next]
			next++
		}
		inst, ok := group.Instance(pos)
		if !ok {
			return nil, fmt.Errorf("form: find %q: %q has no instance %d", idPath, step.ID, pos)
		}
		current = inst
	}
	if next != len(positions) {
		return nil, fmt.Errorf("form: find %q: %d surplus indices", idPath, len(positions)-next)
	}
	return current, nil
}

// Instances returns the live instances of the node at idPath across all
// repeats of its ancestors.
func (f *Form) Instances(idPath string) ([]*Instance, error) {
	node, err := webtemplate.Lookup(f.tmpl.Tree, idPath)
	if err != nil {
		return nil, fmt.Errorf("form: instances %q: %w", idPath, err)
	}
	var out []*Instance
	_ = f.Walk(func(inst *Instance) error {
		if inst.node == node {
			out = append(out, inst)
			return webtemplate.SkipChildren
		}
		return nil
	})
	return out, nil
}

func (f *Form) newInstance(node *webtemplate.Node, index int, parent *Instance) (*Instance, error) {
	inst := &Instance{
		form:   f,
		id:     f.newID(),
		node:   node,
		index:  index,
		parent: parent,
	}

	if node.IsBound() {
		path, err := flatpath.Resolve(node, inst.Indices())
		if err != nil {
			return nil, err
		}
		field, err := f.factory.NewField(binding.Slot{
			InstanceID: inst.id,
			Node:       node,
			Index:      index,
			Path:       path,
		})
		if err != nil {
			return nil, fmt.Errorf("form: field for %s: %w", node.IDPath(), err)
		}
		inst.field = field
		inst.unsubscribe = field.Subscribe(func(changed binding.Field) {
			f.emit(Event{Type: ValueChanged, Instance: inst, Field: changed})
		})
	}

	for _, child := range node.Children {
		if f.skipped(child) {
			continue
		}
		group := &Group{node: child, owner: inst}
		inst.groups = append(inst.groups, group)

		initial := 1
		if child.IsRepeating() {
			initial = child.Min
		}
		for i := 0; i < initial; i++ {
			if _, err := group.create(i); err != nil {
				inst.release()
				return nil, err
			}
		}
	}
	return inst, nil
}
