package binding

import (
	"fmt"
	"sync"

	"github.com/goliatone/go-ehrform/pkg/datavalue"
)

// MemoryField keeps its value in memory and checks that assigned values have
// the kind expected for its node.
type MemoryField struct {
	mu       sync.Mutex
	kind     datavalue.Kind
	value    datavalue.Value
	disabled bool
	nextID   int
	subs     map[int]func(Field)
}

var (
	_ Field   = (*MemoryField)(nil)
	_ Toggler = (*MemoryField)(nil)
)

// NewMemoryField returns an empty field accepting values of kind.
func NewMemoryField(kind datavalue.Kind) *MemoryField {
	return &MemoryField{kind: kind}
}

// Kind returns the value kind the field accepts.
func (f *MemoryField) Kind() datavalue.Kind {
	return f.kind
}

func (f *MemoryField) Value() datavalue.Value {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// SetValue stores v. A nil or empty value clears the field.
func (f *MemoryField) SetValue(v datavalue.Value) error {
	if v != nil && v.IsEmpty() {
		v = nil
	}
	if v != nil && f.kind != "" && v.Kind() != f.kind {
		return fmt.Errorf("binding: field expects %s value, got %s", f.kind, v.Kind())
	}
	f.mu.Lock()
	f.value = v
	f.mu.Unlock()
	f.notify()
	return nil
}

func (f *MemoryField) Clear() {
	f.mu.Lock()
	had := f.value != nil
	f.value = nil
	f.mu.Unlock()
	if had {
		f.notify()
	}
}

func (f *MemoryField) Disabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disabled
}

func (f *MemoryField) SetDisabled(disabled bool) {
	f.mu.Lock()
	f.disabled = disabled
	f.mu.Unlock()
}

func (f *MemoryField) Subscribe(fn func(Field)) func() {
	if fn == nil {
		return func() {}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = make(map[int]func(Field))
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *MemoryField) notify() {
	f.mu.Lock()
	subs := make([]func(Field), 0, len(f.subs))
	// Deliver in subscription order.
	for i := 0; i < f.nextID; i++ {
		if fn, ok := f.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(f)
	}
}

// MemoryFactory creates MemoryFields typed by datavalue.KindFor.
type MemoryFactory struct {
	mu     sync.Mutex
	fields map[string]*MemoryField
}

var _ Factory = (*MemoryFactory)(nil)

// NewMemoryFactory returns an empty factory.
func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{fields: make(map[string]*MemoryField)}
}

func (m *MemoryFactory) NewField(slot Slot) (Field, error) {
	if slot.Node == nil {
		return nil, fmt.Errorf("binding: slot %q has no node", slot.Path)
	}
	field := NewMemoryField(datavalue.KindFor(slot.Node))
	m.mu.Lock()
	m.fields[slotKey(slot)] = field
	m.mu.Unlock()
	return field, nil
}

func (m *MemoryFactory) Release(slot Slot, _ Field) {
	m.mu.Lock()
	delete(m.fields, slotKey(slot))
	m.mu.Unlock()
}

// Live returns the number of fields created and not yet released.
func (m *MemoryFactory) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fields)
}

func slotKey(slot Slot) string {
	return slot.InstanceID + "#" + slot.Node.ID
}
