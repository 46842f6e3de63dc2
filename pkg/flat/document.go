// Package flat holds the FLAT document exchanged with persistence: a map
// from resolved path (optionally "|suffix"ed) to a primitive value.
package flat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-ehrform/pkg/datavalue"
)

// Document maps FLAT keys to string, bool or json.Number values.
type Document map[string]any

// Decode reads a FLAT document from r. JSON is tried first (numbers are kept
// as json.Number); YAML is accepted as a fallback for hand-written fixtures.
func Decode(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("flat: read: %w", err)
	}
	return Parse(data)
}

// Parse decodes raw JSON or YAML bytes into a Document.
func Parse(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("flat: document is empty")
	}

	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	jsonErr := dec.Decode(&raw)
	if jsonErr == nil {
		return Normalize(raw)
	}
	if trimmed[0] == '{' {
		return nil, fmt.Errorf("flat: parse JSON: %w", jsonErr)
	}

	doc, err := parseYAML(trimmed)
	if err != nil {
		return nil, fmt.Errorf("flat: parse: invalid JSON or YAML: %w", err)
	}
	return doc, nil
}

// UnmarshalJSON decodes a JSON object keeping number literals as
// json.Number, so a document read with encoding/json encodes back byte for
// byte.
func (d *Document) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = nil
		return nil
	}
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("flat: parse JSON: %w", err)
	}
	doc, err := Normalize(raw)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

// Normalize converts a decoded map into a Document. Go numbers become
// json.Number, nil values are dropped and nested values are rejected.
func Normalize(raw map[string]any) (Document, error) {
	doc := make(Document, len(raw))
	for key, value := range raw {
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("flat: empty key")
		}
		switch v := value.(type) {
		case nil:
			continue
		case string, bool:
			doc[key] = v
		default:
			n, ok := datavalue.ToNumber(v)
			if !ok {
				return nil, fmt.Errorf("flat: key %q: unsupported value of type %T", key, value)
			}
			doc[key] = n
		}
	}
	return doc, nil
}

func parseYAML(data []byte) (Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping at the document root")
	}
	mapping := root.Content[0]
	doc := make(Document, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode, valueNode := mapping.Content[i], mapping.Content[i+1]
		key := keyNode.Value
		if valueNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("key %q (line %d): expected a scalar", key, valueNode.Line)
		}
		switch valueNode.Tag {
		case "!!null":
			continue
		case "!!bool":
			var b bool
			if err := valueNode.Decode(&b); err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			doc[key] = b
		case "!!int", "!!float":
			// Keep the literal so 7.30 stays 7.30.
			n, ok := datavalue.ToNumber(valueNode.Value)
			if !ok {
				return nil, fmt.Errorf("key %q (line %d): %q is not a JSON number", key, valueNode.Line, valueNode.Value)
			}
			doc[key] = n
		default:
			doc[key] = valueNode.Value
		}
	}
	return doc, nil
}

// Keys returns the document keys sorted.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for key := range d {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether both documents hold the same keys with identical
// values. Numbers compare by their literal text.
func (d Document) Equal(other Document) bool {
	if len(d) != len(other) {
		return false
	}
	for key, value := range d {
		otherValue, ok := other[key]
		if !ok || !samePrimitive(value, otherValue) {
			return false
		}
	}
	return true
}

// Diff lists the keys whose values differ between d and other, sorted.
func (d Document) Diff(other Document) []string {
	seen := make(map[string]struct{}, len(d)+len(other))
	var out []string
	for key, value := range d {
		seen[key] = struct{}{}
		if otherValue, ok := other[key]; !ok || !samePrimitive(value, otherValue) {
			out = append(out, key)
		}
	}
	for key := range other {
		if _, ok := seen[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// Clone returns a shallow copy.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for key, value := range d {
		out[key] = value
	}
	return out
}

// MarshalJSON encodes the document with sorted keys.
func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(d))
}

// Encode writes the document as indented JSON.
func (d Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(map[string]any(d))
}

func samePrimitive(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case json.Number:
		bv, ok := b.(json.Number)
		return ok && av == bv
	}
	return false
}
