package flatpath

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

// Index pairs a template node id with a zero-based repeat index.
type Index struct {
	ID  string
	Pos int
}

// UnresolvedIndexError reports indices that do not line up with the
// repeating ancestors of a node. Raised after construction it signals a
// programming error.
type UnresolvedIndexError struct {
	Node    string
	AQLPath string
	Reason  string
}

func (e *UnresolvedIndexError) Error() string {
	return fmt.Sprintf("flatpath: cannot resolve %q (%s): %s", e.Node, e.AQLPath, e.Reason)
}

// Resolve returns the node's aqlPath with a ":<n>" marker after the segment
// of every repeating ancestor-or-self. indices is ordered root to node; each
// repeating node needs exactly one entry and entries for non-repeating nodes
// are accepted only with position 0.
func Resolve(node *webtemplate.Node, indices []Index) (string, error) {
	if node == nil {
		return "", &UnresolvedIndexError{Reason: "node is nil"}
	}
	chain := node.Ancestors()
	positions := make(map[*webtemplate.Node]int, len(indices))

	cursor := 0
	for _, idx := range indices {
		matched := -1
		for i := cursor; i < len(chain); i++ {
			if chain[i].ID == idx.ID {
				matched = i
				break
			}
		}
		if matched < 0 {
			return "", unresolved(node, fmt.Sprintf("index for %q does not match an ancestor", idx.ID))
		}
		target := chain[matched]
		switch {
		case idx.Pos < 0:
			return "", unresolved(node, fmt.Sprintf("negative index %d for %q", idx.Pos, idx.ID))
		case !target.IsRepeating() && idx.Pos != 0:
			return "", unresolved(node, fmt.Sprintf("index %d given for non-repeating %q", idx.Pos, idx.ID))
		case target.IsRepeating():
			positions[target] = idx.Pos
		}
		cursor = matched + 1
	}

	type mark struct {
		offset int
		pos    int
	}
	var marks []mark
	for _, ancestor := range chain {
		if !ancestor.IsRepeating() {
			continue
		}
		pos, ok := positions[ancestor]
		if !ok {
			return "", unresolved(node, fmt.Sprintf("missing index for repeating %q", ancestor.ID))
		}
		if !webtemplate.ExtendsPath(node.AQLPath, ancestor.AQLPath) {
			return "", unresolved(node, fmt.Sprintf("aqlPath does not extend repeating %q", ancestor.ID))
		}
		marks = append(marks, mark{offset: len(ancestor.AQLPath), pos: pos})
	}

	// Insert from the deepest offset so earlier offsets stay valid.
	sort.SliceStable(marks, func(i, j int) bool { return marks[i].offset > marks[j].offset })
	path := node.AQLPath
	for _, m := range marks {
		path = path[:m.offset] + ":" + strconv.Itoa(m.pos) + path[m.offset:]
	}
	return path, nil
}

// Key joins a resolved path and an input suffix. An empty suffix yields the
// bare path.
func Key(path, suffix string) string {
	if suffix == "" {
		return path
	}
	return path + "|" + suffix
}

func unresolved(node *webtemplate.Node, reason string) error {
	return &UnresolvedIndexError{Node: node.IDPath(), AQLPath: node.AQLPath, Reason: strings.TrimSpace(reason)}
}
