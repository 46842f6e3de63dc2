package form

import (
	"github.com/goliatone/go-ehrform/pkg/datavalue"
	"github.com/goliatone/go-ehrform/pkg/flat"
	"github.com/goliatone/go-ehrform/pkg/flatpath"
)

// Collect reduces the live forest to a FLAT document. Every live instance is
// visited regardless of the node's max; empty fields contribute no keys.
// Collect never fails: a path that cannot be resolved is a programming error
// and is logged and skipped.
func (f *Form) Collect() flat.Document {
	doc := make(flat.Document)
	_ = f.Walk(func(inst *Instance) error {
		if inst.field == nil {
			return nil
		}
		parts := datavalue.Split(inst.field.Value(), datavalue.PartsFor(inst.node))
		if len(parts) == 0 {
			return nil
		}
		path, err := inst.Path()
		if err != nil {
			f.logger.Error().Err(err).
				Str("node", inst.node.IDPath()).
				Str("instance", inst.id).
				Msg("cannot resolve path while collecting")
			return nil
		}
		for _, part := range parts {
			doc[flatpath.Key(path, part.Suffix)] = part.Value
		}
		return nil
	})
	return doc
}
