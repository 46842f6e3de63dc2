// Package binding defines the contract between the aggregation engine and
// whatever holds field values at runtime (custom elements, terminal prompts,
// plain memory). The engine only talks to Field and Factory.
package binding

import (
	"github.com/goliatone/go-ehrform/pkg/datavalue"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

// Field is a live value holder paired with one repeat instance of a bound
// template node.
type Field interface {
	// Value returns the committed value, or nil when the field is empty or a
	// lookup is still in flight.
	Value() datavalue.Value
	SetValue(datavalue.Value) error
	Clear()
	// Subscribe registers fn for "input changed" notifications and returns
	// a function that removes it.
	Subscribe(fn func(Field)) (cancel func())
}

// Toggler is implemented by filter-style fields that can be disabled without
// losing their value.
type Toggler interface {
	Disabled() bool
	SetDisabled(bool)
}

// Slot identifies where a field lives in the instance forest.
type Slot struct {
	InstanceID string
	Node       *webtemplate.Node
	Index      int
	Path       string
}

// Factory instantiates fields when an instance is added and releases them
// when it is removed.
type Factory interface {
	NewField(slot Slot) (Field, error)
	Release(slot Slot, field Field)
}

// FactoryFunc adapts a constructor to Factory. Release is a no-op.
type FactoryFunc func(slot Slot) (Field, error)

func (f FactoryFunc) NewField(slot Slot) (Field, error) { return f(slot) }

func (FactoryFunc) Release(Slot, Field) {}
