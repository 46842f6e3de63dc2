package webtemplate

import (
	"errors"
	"fmt"
	"strings"
)

// SkipChildren can be returned from a WalkFunc to skip the node's subtree.
var SkipChildren = errors.New("webtemplate: skip children")

// WalkFunc is called for every node visited by Walk.
type WalkFunc func(node *Node) error

// Walk visits root and its descendants depth-first in declaration order.
func Walk(root *Node, fn WalkFunc) error {
	if root == nil || fn == nil {
		return nil
	}
	if err := fn(root); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for _, child := range root.Children {
		if err := Walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}

// FindNode performs a depth-first search for id and returns the first match.
// Ids are not globally unique; prefer FindUnique or Lookup when the subtree
// may contain the id more than once.
func FindNode(root *Node, id string) (*Node, bool) {
	if root == nil {
		return nil, false
	}
	if root.ID == id {
		return root, true
	}
	for _, child := range root.Children {
		if found, ok := FindNode(child, id); ok {
			return found, true
		}
	}
	return nil, false
}

// FindAll returns every node in the subtree with the given id, in pre-order.
func FindAll(root *Node, id string) []*Node {
	var out []*Node
	_ = Walk(root, func(node *Node) error {
		if node.ID == id {
			out = append(out, node)
		}
		return nil
	})
	return out
}

// FindUnique returns the single node with id in the subtree. It returns
// ErrNotFound when nothing matches and an *AmbiguousIDError when several
// nodes share the id.
func FindUnique(root *Node, id string) (*Node, error) {
	matches := FindAll(root, id)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	case 1:
		return matches[0], nil
	}
	paths := make([]string, len(matches))
	for i, match := range matches {
		paths[i] = match.IDPath()
	}
	return nil, &AmbiguousIDError{ID: id, Matches: paths}
}

// Lookup resolves a slash separated id path relative to root. The first
// segment may name root itself ("initial_assessment/context/setting") or
// one of its children ("context/setting").
func Lookup(root *Node, idPath string) (*Node, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: empty tree", ErrNotFound)
	}
	segments := splitIDPath(idPath)
	if len(segments) == 0 {
		return root, nil
	}
	if segments[0] == root.ID {
		segments = segments[1:]
	}
	current := root
	for _, segment := range segments {
		next, ok := current.Child(segment)
		if !ok {
			return nil, fmt.Errorf("%w: %q has no child %q", ErrNotFound, current.IDPath(), segment)
		}
		current = next
	}
	return current, nil
}

// BoundNodes returns every node that holds a value, in pre-order.
func BoundNodes(root *Node) []*Node {
	var out []*Node
	_ = Walk(root, func(node *Node) error {
		if node.IsBound() {
			out = append(out, node)
		}
		return nil
	})
	return out
}

func splitIDPath(idPath string) []string {
	raw := strings.Split(strings.Trim(strings.TrimSpace(idPath), "/"), "/")
	out := raw[:0]
	for _, segment := range raw {
		if segment = strings.TrimSpace(segment); segment != "" {
			out = append(out, segment)
		}
	}
	return out
}
