package flatpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Mark is one repeat index found in a key. Prefix is the static path up to
// the repeating segment that carried the index.
type Mark struct {
	Prefix string
	Pos    int
}

// Parsed is a FLAT key split into its parts.
type Parsed struct {
	Key    string
	Path   string
	Suffix string
	Marks  []Mark
}

// Positions returns the repeat indices in order of appearance.
func (p Parsed) Positions() []int {
	out := make([]int, len(p.Marks))
	for i, m := range p.Marks {
		out[i] = m.Pos
	}
	return out
}

// Base returns the key without its suffix, repeat indices included.
func (p Parsed) Base() string {
	if p.Suffix == "" {
		return p.Key
	}
	return p.Key[:len(p.Key)-len(p.Suffix)-1]
}

// ErrEmptyKey is returned by ParseKey for blank keys.
var ErrEmptyKey = errors.New("flatpath: empty key")

// ParseKey splits key into its static aqlPath, repeat marks and suffix. A
// "|" after the last "]" starts the suffix; ":<digits>" outside brackets and
// quotes, followed by "/" or the end of the path, is a repeat index.
func ParseKey(key string) (Parsed, error) {
	if strings.TrimSpace(key) == "" {
		return Parsed{}, ErrEmptyKey
	}
	out := Parsed{Key: key}

	rest := key
	if bar := strings.LastIndexByte(key, '|'); bar >= 0 && bar > strings.LastIndexByte(key, ']') {
		out.Suffix = key[bar+1:]
		rest = key[:bar]
		if out.Suffix == "" {
			return Parsed{}, fmt.Errorf("flatpath: key %q has an empty suffix", key)
		}
	}

	var (
		b     strings.Builder
		depth int
		quote byte
	)
	b.Grow(len(rest))
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			if depth > 0 {
				quote = c
			}
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth < 0 {
				return Parsed{}, fmt.Errorf("flatpath: key %q has unbalanced brackets", key)
			}
		case c == ':' && depth == 0:
			end := i + 1
			for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
				end++
			}
			if end > i+1 && (end == len(rest) || rest[end] == '/') {
				pos, err := strconv.Atoi(rest[i+1 : end])
				if err != nil {
					return Parsed{}, fmt.Errorf("flatpath: key %q: %w", key, err)
				}
				out.Marks = append(out.Marks, Mark{Prefix: b.String(), Pos: pos})
				i = end - 1
				continue
			}
		}
		b.WriteByte(c)
	}
	if depth != 0 || quote != 0 {
		return Parsed{}, fmt.Errorf("flatpath: key %q has unbalanced brackets", key)
	}
	out.Path = b.String()
	return out, nil
}
