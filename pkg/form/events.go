package form

import "github.com/goliatone/go-ehrform/pkg/binding"

// EventType enumerates form notifications.
type EventType int

const (
	InstanceAdded EventType = iota + 1
	InstanceRemoved
	ValueChanged
)

func (t EventType) String() string {
	switch t {
	case InstanceAdded:
		return "instance-added"
	case InstanceRemoved:
		return "instance-removed"
	case ValueChanged:
		return "value-changed"
	}
	return "unknown"
}

// Event is delivered synchronously to subscribers.
type Event struct {
	Type     EventType
	Instance *Instance
	Field    binding.Field
}

// Subscribe registers fn for form events and returns a cancel function.
func (f *Form) Subscribe(fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	id := f.nextListener
	f.nextListener++
	f.listeners[id] = fn
	return func() {
		delete(f.listeners, id)
	}
}

func (f *Form) emit(evt Event) {
	for i := 0; i < f.nextListener; i++ {
		if fn, ok := f.listeners[i]; ok {
			fn(evt)
		}
	}
}
