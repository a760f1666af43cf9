package treestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// Reset clears every top-level key of the namespace and empties the cache.
// All top-level keys are attempted; failures are reported together.
func (s *Store) Reset(ctx context.Context) error {
	names, err := s.smembers(ctx, s.childrenKey())
	if err != nil {
		return err
	}

	var (
		mu   sync.Mutex
		errs *multierror.Error
		g    errgroup.Group
	)
	for _, name := range names {
		g.Go(func() error {
			if _, err := s.clearPath(ctx, []string{name}, true); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("clear %s: %w", name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	s.cache.Purge()
	return errs.ErrorOrNil()
}

// Save replaces the whole namespace with value, which must be an object.
// The store is reset first, then every top-level property is set.
func (s *Store) Save(ctx context.Context, value any) error {
	node, err := NodeOf(value, s.maxDepth)
	if err != nil {
		return err
	}
	if !node.IsBranch() {
		return fmt.Errorf("%w: value to be saved must be an object", ErrValidation)
	}
	if err := validateNode(node, 0, s.maxDepth); err != nil {
		return err
	}

	if err := s.Reset(ctx); err != nil {
		return err
	}

	var g errgroup.Group
	for name, child := range node.Children() {
		g.Go(func() error {
			return s.setNode(ctx, []string{name}, child, WriteOptions{Tree: true})
		})
	}
	return g.Wait()
}

// Load reads every top-level key as a tree. Keys whose read fails are
// served from the cache the way Get does. Afterwards all cache entries are
// marked stale, so the next read of any key goes to the backend again.
func (s *Store) Load(ctx context.Context) (map[string]any, error) {
	names, err := s.smembers(ctx, s.childrenKey())
	if err != nil {
		return nil, err
	}

	values := make([]any, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			values[i] = s.Get(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	result := make(map[string]any, len(names))
	for i, name := range names {
		result[name] = values[i]
	}

	s.cache.InvalidateAll()
	return result, nil
}
