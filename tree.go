package treestore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// ReadOptions controls GetValue.
type ReadOptions struct {
	// Tree assembles nested objects from children-sets instead of reading
	// only the literal stored at the key.
	Tree bool
}

// WriteOptions controls SetValue.
type WriteOptions struct {
	// Tree decomposes object values into one backend key per leaf.
	Tree bool
	// TTL attaches a backend expiry to a literal write. Zero means none.
	TTL time.Duration
}

// ClearOptions controls ClearValue.
type ClearOptions struct {
	// Tree removes every leaf below the key.
	Tree bool
}

// Get reads key as a tree. It never fails: when the backend cannot be
// reached the last cached value is returned, even if it has expired, and
// nil when nothing was ever cached.
func (s *Store) Get(ctx context.Context, key string) any {
	v, err := s.GetValue(ctx, key, ReadOptions{Tree: true})
	if err == nil {
		return v
	}
	staleReads.Add(ctx, 1, nsAttr(s.namespace))
	s.logf("warn", ctx, "Get %s failed, serving cached value: %v", key, err)
	v, _ = s.PeekCached(key)
	return v
}

// GetValue reads key, consulting the backend once the cached entry is older
// than the TTL. Missing keys read as nil. Errors are returned unchanged.
func (s *Store) GetValue(ctx context.Context, key string, opts ReadOptions) (any, error) {
	n, err := s.getNode(ctx, Path(key), opts.Tree)
	if err != nil {
		return nil, err
	}
	return n.Value(), nil
}

// PeekCached returns whatever is cached for key without touching the
// backend. The value may be stale.
func (s *Store) PeekCached(key string) (any, bool) {
	n, ok := s.cache.Get(Key(Path(key)...))
	if !ok {
		return nil, false
	}
	return n.Value(), true
}

func (s *Store) getNode(ctx context.Context, path []string, tree bool) (Node, error) {
	key := Key(path...)
	if s.cache.IsFresh(key, s.ttl) {
		cacheHits.Add(ctx, 1, nsAttr(s.namespace))
		n, _ := s.cache.Get(key)
		return n, nil
	}
	cacheMisses.Add(ctx, 1, nsAttr(s.namespace))

	if tree {
		names, err := s.smembers(ctx, s.childrenKey(path...))
		if err != nil {
			return Node{}, err
		}
		if len(names) > 0 {
			nodes := make([]Node, len(names))
			var g errgroup.Group
			for i, name := range names {
				g.Go(func() error {
					child, err := s.getNode(ctx, childPath(path, name), true)
					nodes[i] = child
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return Node{}, err
			}
			children := make(map[string]Node, len(names))
			for i, name := range names {
				children[name] = nodes[i]
			}
			n := Branch(children)
			s.cache.Set(key, n)
			return n, nil
		}
	}

	fullKey := s.key(path...)
	data, ok, err := s.get(ctx, fullKey)
	if err != nil {
		return Node{}, err
	}
	var v any
	if ok {
		if err := json.Unmarshal(data, &v); err != nil {
			s.logf("error", ctx, "decode %s failed: %v", fullKey, err)
			return Node{}, &DecodeError{Key: fullKey, Err: err}
		}
	}
	n := Leaf(v)
	s.cache.Set(key, n)
	return n, nil
}

// Set writes value at key as a tree: objects are decomposed into their leaves.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	return s.SetValue(ctx, key, value, WriteOptions{Tree: true})
}

// SetValue writes value at key. Every ancestor of key is registered in its
// parent's children-set first so tree reads can discover it. Writes already
// issued are not rolled back when a later one fails.
//
// Writing a literal over an existing object leaves the object's children
// registered; they still win on tree reads. Clear the key first, or use
// Save, to replace a subtree.
func (s *Store) SetValue(ctx context.Context, key string, value any, opts WriteOptions) error {
	path, node, err := s.prepare(key, value)
	if err != nil {
		return err
	}
	return s.setNode(ctx, path, node, opts)
}

// Merge folds value into the object stored at key. Only properties present
// in value are written; other children are left alone. Merging is done at
// the object-shape level: an incoming scalar replaces an existing child
// outright, and any value merged into a literal or an array replaces it.
func (s *Store) Merge(ctx context.Context, key string, value any) error {
	path, node, err := s.prepare(key, value)
	if err != nil {
		return err
	}
	return s.mergeNode(ctx, path, node)
}

// Clear removes key and everything below it, returning the number of
// literals deleted.
func (s *Store) Clear(ctx context.Context, key string) (int64, error) {
	return s.ClearValue(ctx, key, ClearOptions{Tree: true})
}

// ClearValue unregisters key from its parent and deletes it. Without Tree
// only the literal at key is deleted.
func (s *Store) ClearValue(ctx context.Context, key string, opts ClearOptions) (int64, error) {
	path := Path(key)
	if len(path) == 0 {
		return 0, fmt.Errorf("%w: empty key", ErrValidation)
	}
	return s.clearPath(ctx, path, opts.Tree)
}

func (s *Store) prepare(key string, value any) ([]string, Node, error) {
	path := Path(key)
	if len(path) == 0 {
		return nil, Node{}, fmt.Errorf("%w: empty key", ErrValidation)
	}
	if !validPath(path) {
		return nil, Node{}, fmt.Errorf("%w: %q uses reserved segment %q", ErrValidation, key, ChildrenSuffix)
	}
	node, err := NodeOf(value, s.maxDepth)
	if err != nil {
		return nil, Node{}, err
	}
	if err := validateNode(node, 0, s.maxDepth); err != nil {
		return nil, Node{}, err
	}
	return path, node, nil
}

func (s *Store) setNode(ctx context.Context, path []string, node Node, opts WriteOptions) error {
	key := Key(path...)
	err := s.writeNode(ctx, path, node, opts)
	s.cache.ClearRelated(key)
	if err != nil {
		return err
	}
	s.cache.Set(key, node)
	return nil
}

func (s *Store) writeNode(ctx context.Context, path []string, node Node, opts WriteOptions) error {
	if err := s.addKeys(ctx, path); err != nil {
		return err
	}
	if opts.Tree && node.IsBranch() {
		return s.setObject(ctx, path, node)
	}
	data, err := encodeLeaf(node)
	if err != nil {
		return err
	}
	return s.set(ctx, s.key(path...), data, opts.TTL)
}

// addKeys registers every segment of path in its parent's children-set.
func (s *Store) addKeys(ctx context.Context, path []string) error {
	var g errgroup.Group
	for i, segment := range path {
		g.Go(func() error {
			return s.sadd(ctx, s.childrenKey(path[:i]...), segment)
		})
	}
	return g.Wait()
}

// setObject writes the children of a branch. The branch itself holds no literal.
func (s *Store) setObject(ctx context.Context, path []string, node Node) error {
	var g errgroup.Group
	for name, child := range node.Children() {
		g.Go(func() error {
			if err := s.sadd(ctx, s.childrenKey(path...), name); err != nil {
				return err
			}
			cp := childPath(path, name)
			if child.IsBranch() {
				return s.setObject(ctx, cp, child)
			}
			data, err := encodeLeaf(child)
			if err != nil {
				return err
			}
			return s.set(ctx, s.key(cp...), data, 0)
		})
	}
	return g.Wait()
}

func (s *Store) mergeNode(ctx context.Context, path []string, node Node) error {
	if !node.IsBranch() {
		return s.setNode(ctx, path, node, WriteOptions{Tree: true})
	}
	if err := s.addKeys(ctx, path); err != nil {
		return err
	}
	existing, err := s.smembers(ctx, s.childrenKey(path...))
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return s.setNode(ctx, path, node, WriteOptions{Tree: true})
	}

	var g errgroup.Group
	for name, child := range node.Children() {
		g.Go(func() error {
			return s.mergeNode(ctx, childPath(path, name), child)
		})
	}
	err = g.Wait()
	s.cache.ClearRelated(Key(path...))
	return err
}

func (s *Store) clearPath(ctx context.Context, path []string, tree bool) (int64, error) {
	s.cache.ClearRelated(Key(path...))

	parent, last := path[:len(path)-1], path[len(path)-1]
	if err := s.srem(ctx, s.childrenKey(parent...), last); err != nil {
		return 0, err
	}

	fullKey := s.key(path...)
	if tree {
		names, err := s.smembers(ctx, s.childrenKey(path...))
		if err != nil {
			return 0, err
		}
		if len(names) > 0 {
			var total atomic.Int64
			var g errgroup.Group
			for _, name := range names {
				g.Go(func() error {
					n, err := s.clearPath(ctx, childPath(path, name), true)
					total.Add(n)
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return total.Load(), err
			}
			// A literal written before the key became a branch would
			// resurface once its children-set is empty.
			if _, err := s.del(ctx, fullKey); err != nil {
				return total.Load(), err
			}
			return total.Load(), nil
		}
	}

	n, err := s.del(ctx, fullKey)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 1, nil
	}
	return 0, nil
}

func childPath(path []string, name string) []string {
	cp := make([]string, len(path), len(path)+1)
	copy(cp, path)
	return append(cp, name)
}

func encodeLeaf(n Node) ([]byte, error) {
	data, err := json.Marshal(n.Value())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return data, nil
}

// validateNode rejects child names the key encoding cannot represent and
// branches nested deeper than maxDepth.
func validateNode(n Node, depth, maxDepth int) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: deeper than %d levels", ErrTooDeep, maxDepth)
	}
	for name, child := range n.Children() {
		switch {
		case name == "":
			return fmt.Errorf("%w: empty property name", ErrValidation)
		case name == ChildrenSuffix:
			return fmt.Errorf("%w: property name %q is reserved", ErrValidation, ChildrenSuffix)
		case strings.Contains(name, Delimiter):
			return fmt.Errorf("%w: property name %q contains %q", ErrValidation, name, Delimiter)
		}
		if err := validateNode(child, depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}
