package treestore

import (
	"encoding/json"
	"fmt"
)

// DefaultMaxDepth bounds how deeply a value may nest before it is rejected.
const DefaultMaxDepth = 64

// Kind tells leaves from branches.
type Kind uint8

const (
	KindLeaf Kind = iota
	KindBranch
)

func (k Kind) String() string {
	if k == KindBranch {
		return "branch"
	}
	return "leaf"
}

// Node is a configuration value classified once at the API boundary.
// A leaf carries a JSON value (scalar, array or nil); a branch carries
// its children by segment name.
type Node struct {
	kind     Kind
	leaf     any
	children map[string]Node
}

// Leaf wraps a JSON value. The value is used as is; see NodeOf for normalisation.
func Leaf(v any) Node {
	return Node{kind: KindLeaf, leaf: v}
}

// Branch wraps a set of children.
func Branch(children map[string]Node) Node {
	if children == nil {
		children = map[string]Node{}
	}
	return Node{kind: KindBranch, children: children}
}

func (n Node) Kind() Kind { return n.kind }

func (n Node) IsBranch() bool { return n.kind == KindBranch }

// Children returns the branch children, nil for a leaf.
func (n Node) Children() map[string]Node { return n.children }

// LeafValue returns the JSON value of a leaf, nil for a branch.
func (n Node) LeafValue() any { return n.leaf }

// Value converts the node back into plain Go values: map[string]any for
// branches and decoded JSON for leaves. The result is a fresh copy.
func (n Node) Value() any {
	if n.kind == KindBranch {
		out := make(map[string]any, len(n.children))
		for name, child := range n.children {
			out[name] = child.Value()
		}
		return out
	}
	return cloneJSON(n.leaf)
}

// NodeOf classifies v. Plain objects become branches and everything else
// becomes a leaf. Values outside the JSON data model (structs, typed maps,
// integers) are normalised through a JSON round trip so that cached values
// look like values decoded from the backend.
func NodeOf(v any, maxDepth int) (Node, error) {
	if n, ok := v.(Node); ok {
		return n, nil
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	norm, err := normalize(v, 0, maxDepth)
	if err != nil {
		return Node{}, err
	}
	return classify(norm), nil
}

func classify(v any) Node {
	obj, ok := v.(map[string]any)
	if !ok {
		return Leaf(v)
	}
	children := make(map[string]Node, len(obj))
	for name, child := range obj {
		children[name] = classify(child)
	}
	return Branch(children)
}

// normalize returns v restricted to the JSON data model.
func normalize(v any, depth, maxDepth int) (any, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: deeper than %d levels", ErrTooDeep, maxDepth)
	}
	switch t := v.(type) {
	case nil, bool, string, float64:
		return t, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			nc, err := normalize(child, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			out[k] = nc
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			nc, err := normalize(child, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			out[i] = nc
		}
		return out, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return normalize(decoded, depth, maxDepth)
}

func cloneJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = cloneJSON(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = cloneJSON(child)
		}
		return out
	default:
		return t
	}
}
