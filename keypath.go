package treestore

import "strings"

const (
	// Delimiter separates key path segments in logical and backend keys.
	Delimiter = ":"
	// ChildrenSuffix names the set that lists a branch's immediate children.
	ChildrenSuffix = "keys"
)

// Path splits a logical key into its segments. Empty segments are dropped.
func Path(key string) []string {
	parts := strings.Split(key, Delimiter)
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// Key joins segments into a logical key, skipping empty ones.
func Key(segments ...string) string {
	var sb strings.Builder
	for _, s := range segments {
		if s == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(Delimiter)
		}
		sb.WriteString(s)
	}
	return sb.String()
}

// BackendKey builds the fully qualified key for segments.
// The namespace is omitted when empty.
func BackendKey(namespace string, segments ...string) string {
	if namespace == "" {
		return Key(segments...)
	}
	return Key(append([]string{namespace}, segments...)...)
}

// ChildrenKey addresses the children-set of the node at segments.
// With no segments it is the namespace's root registry.
func ChildrenKey(namespace string, segments ...string) string {
	full := make([]string, 0, len(segments)+1)
	full = append(full, segments...)
	return BackendKey(namespace, append(full, ChildrenSuffix)...)
}

// validPath rejects paths that would collide with a children-set.
func validPath(segments []string) bool {
	for _, s := range segments {
		if s == ChildrenSuffix {
			return false
		}
	}
	return true
}
