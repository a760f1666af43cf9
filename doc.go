// Package treestore layers a hierarchical, namespaced configuration tree on
// top of a flat key/value backend that only knows strings and sets.
//
// # Overview
//
// Callers read and write ":"-delimited key paths holding scalars, arrays or
// nested objects. Objects are decomposed into one backend key per leaf, and
// every branch keeps the names of its children in a set stored next to it:
//
//	store.Set(ctx, "db", map[string]any{"host": "x", "port": 5432})
//
//	config:keys         => {db}
//	config:db:keys      => {host, port}
//	config:db:host      => "x"
//	config:db:port      => 5432
//
// Reading "db" assembles the object again, while "db:port" reads only
// that leaf. Leaves are stored as JSON.
//
// # Architecture
//
// The package consists of four parts:
//
// 1. Backend: the flat storage (NewMemory, NewRedis or your own)
// 2. Store: tree get/set/merge/clear plus bulk save/load/reset
// 3. Cache: a per-Store write-through cache with TTL freshness
// 4. ScopedClient: namespaced raw backend access via Store.Client
//
// # Quick Start
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store, _ := treestore.New(treestore.NewRedis(rdb),
//	    treestore.WithNamespace("myapp"),
//	    treestore.WithTTL(time.Minute))
//
//	_ = store.Set(ctx, "db", map[string]any{"host": "x"})
//	host := store.Get(ctx, "db:host") // "x"
//
//	_ = store.Merge(ctx, "db", map[string]any{"port": 5432})
//	n, _ := store.Clear(ctx, "db") // 2 literals deleted
//
// # Caching
//
// Every read and write refreshes the cache entry of its key. A read within
// the TTL of the previous fetch does not touch the backend. Get falls back
// to the cached value when the backend fails, while GetValue returns the
// error. PeekCached never blocks. Load marks all entries stale so that the
// next read goes to the backend again.
//
// # Consistency
//
// Subtree operations fan out concurrently and are not atomic. A reader
// racing a writer on the same subtree may see a partially applied value,
// and a failed write leaves the keys it already wrote in place.
//
// # Error Handling
//
//	_, err := store.GetValue(ctx, "db", treestore.ReadOptions{Tree: true})
//	var be *treestore.BackendError
//	if errors.As(err, &be) {
//	    // Handle backend failure
//	}
//
// Available errors: ErrNotFound, ErrTypeMismatch, ErrValidation, ErrTooDeep,
// *BackendError, *DecodeError.
package treestore
