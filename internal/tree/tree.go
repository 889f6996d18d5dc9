package tree

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned when a traversal encounters a node that is
// neither a Namespace nor a Leaf (in practice, a zero-valued Node).
var ErrMalformed = errors.New("malformed tree node")

type kind int

const (
	invalidKind kind = iota
	namespaceKind
	leafKind
)

// Path is the ordered sequence of names from the root of a tree to one of
// its leaves. Paths are stable: they follow declaration order.
type Path []string

// String renders the path with dot separators, e.g. "host.aarch64.none".
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Key returns a stable map key for the path.
func (p Path) Key() string {
	return p.String()
}

// child returns a new path extended by one name. The backing array is never
// shared with the receiver, so callers may retain returned paths freely.
func (p Path) child(name string) Path {
	next := make(Path, len(p)+1)
	copy(next, p)
	next[len(p)] = name
	return next
}

// Node is one node of a namespace tree: either a Namespace of named
// children or a Leaf carrying a value of type T. The zero Node is neither,
// and every traversal reports it as a fatal error naming its path.
type Node[T any] struct {
	kind    kind
	value   T
	names   []string
	entries map[string]Node[T]
}

// Entry is a named child used to build a Namespace in declaration order.
type Entry[T any] struct {
	Name string
	Node Node[T]
}

// Branch pairs a name with a child node for use with Namespace.
func Branch[T any](name string, node Node[T]) Entry[T] {
	return Entry[T]{Name: name, Node: node}
}

// WrapLeaf tags a value as a terminal Leaf node.
func WrapLeaf[T any](value T) Node[T] {
	return Node[T]{kind: leafKind, value: value}
}

// Namespace builds a Namespace node from its children. Later entries with a
// duplicate name panic: the matrix and profiles are authored in code, so a
// duplicate is a programmer error.
func Namespace[T any](children ...Entry[T]) Node[T] {
	n := Node[T]{
		kind:    namespaceKind,
		names:   make([]string, 0, len(children)),
		entries: make(map[string]Node[T], len(children)),
	}
	for _, child := range children {
		if _, exists := n.entries[child.Name]; exists {
			panic(fmt.Sprintf("duplicate namespace entry '%s'", child.Name))
		}
		n.names = append(n.names, child.Name)
		n.entries[child.Name] = child.Node
	}
	return n
}

// IsLeaf reports whether the node is a tagged Leaf.
func IsLeaf[T any](node Node[T]) bool {
	return node.kind == leafKind
}

// Value returns the Leaf payload and whether the node actually is a Leaf.
func (n Node[T]) Value() (T, bool) {
	if n.kind != leafKind {
		var zero T
		return zero, false
	}
	return n.value, true
}

// Lookup walks the path from this node and returns the node it reaches.
func (n Node[T]) Lookup(path Path) (Node[T], error) {
	current := n
	for i, name := range path {
		if current.kind != namespaceKind {
			return Node[T]{}, fmt.Errorf("path '%s' does not traverse namespaces at '%s'", path, Path(path[:i]))
		}
		child, ok := current.entries[name]
		if !ok {
			return Node[T]{}, fmt.Errorf("path '%s' not found: no entry '%s'", path, name)
		}
		current = child
	}
	return current, nil
}

// Untree strips the Leaf tags from the whole tree: namespaces become plain
// map[string]any nesting and leaves become their raw payloads. Structure is
// otherwise unchanged; declaration order stays observable through Leaves.
func Untree[T any](node Node[T]) (any, error) {
	return untreeAt(node, nil)
}

func untreeAt[T any](node Node[T], at Path) (any, error) {
	switch node.kind {
	case leafKind:
		return node.value, nil
	case namespaceKind:
		out := make(map[string]any, len(node.names))
		for _, name := range node.names {
			child, err := untreeAt(node.entries[name], at.child(name))
			if err != nil {
				return nil, err
			}
			out[name] = child
		}
		return out, nil
	default:
		return nil, fmt.Errorf("at '%s': %w", at, ErrMalformed)
	}
}

// MapLeaves applies f to every Leaf payload and re-wraps the result,
// preserving the namespace shape exactly. f must be pure: ordering across
// sibling subtrees is unspecified, only the order within one path holds.
func MapLeaves[A, B any](f func(A) B, node Node[A]) (Node[B], error) {
	return mapLeavesAt(f, node, nil)
}

func mapLeavesAt[A, B any](f func(A) B, node Node[A], at Path) (Node[B], error) {
	switch node.kind {
	case leafKind:
		return WrapLeaf(f(node.value)), nil
	case namespaceKind:
		out := Node[B]{
			kind:    namespaceKind,
			names:   make([]string, 0, len(node.names)),
			entries: make(map[string]Node[B], len(node.names)),
		}
		for _, name := range node.names {
			child, err := mapLeavesAt(f, node.entries[name], at.child(name))
			if err != nil {
				return Node[B]{}, err
			}
			out.names = append(out.names, name)
			out.entries[name] = child
		}
		return out, nil
	default:
		return Node[B]{}, fmt.Errorf("at '%s': %w", at, ErrMalformed)
	}
}

// LeafEntry is one flattened Leaf together with its full path.
type LeafEntry[T any] struct {
	Path  Path
	Value T
}

// Leaves flattens the tree into one entry per Leaf, in per-level
// declaration order.
func Leaves[T any](node Node[T]) ([]LeafEntry[T], error) {
	var out []LeafEntry[T]
	if err := leavesAt(node, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func leavesAt[T any](node Node[T], at Path, out *[]LeafEntry[T]) error {
	switch node.kind {
	case leafKind:
		path := make(Path, len(at))
		copy(path, at)
		*out = append(*out, LeafEntry[T]{Path: path, Value: node.value})
		return nil
	case namespaceKind:
		for _, name := range node.names {
			if err := leavesAt(node.entries[name], at.child(name), out); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("at '%s': %w", at, ErrMalformed)
	}
}
