package nestedset

import (
	"context"
	"sync"

	"github.com/quintans/faults"
	"github.com/quintans/toolkit/log"

	"github.com/quintans/nestedset/db"
)

var logger = log.LoggerFor("github.com/quintans/nestedset/nestedset")

type options struct {
	cacheSize int
}

type Option func(*options)

// WithCacheSize sets the number of parent lookups kept in memory
func WithCacheSize(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

func WithoutCache() Option {
	return func(o *options) {
		o.cacheSize = 0
	}
}

// Tree runs the nested set operations over the table of a mapping.
// In-memory nodes are views of the rows. Mutations refresh the nodes they receive.
type Tree[N Node] struct {
	tm      db.ITransactionManager
	mapping *Mapping
	factory func() N
	cache   *Cache[N]
	// bound trees run inside a transaction they do not own
	bound bool
	// touched holds the scopes a bound tree changed, purged again once the outer transaction ends
	touched *scopeSet
}

type scopeSet struct {
	mu     sync.Mutex
	scopes map[int64]struct{}
}

func (s *scopeSet) add(scope int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes[scope] = struct{}{}
}

func (s *scopeSet) drain() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.scopes))
	for scope := range s.scopes {
		out = append(out, scope)
	}
	s.scopes = map[int64]struct{}{}
	return out
}

func New[N Node](tm db.ITransactionManager, mapping *Mapping, factory func() N, opts ...Option) (*Tree[N], error) {
	if tm == nil {
		return nil, faults.New("nil transaction manager")
	}
	if mapping == nil {
		return nil, faults.New("nil mapping")
	}
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, faults.New("nil node factory")
	}

	o := options{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Tree[N]{
		tm:      tm,
		mapping: mapping,
		factory: factory,
	}
	if o.cacheSize > 0 {
		cache, err := NewCache[N](o.cacheSize, factory)
		if err != nil {
			return nil, err
		}
		t.cache = cache
	}
	return t, nil
}

// With returns a tree whose operations run in the store of an outer transaction.
// Reads made by other trees before that transaction ends may cache parents it is replacing,
// so call PurgeTouched on the returned tree after the commit or rollback.
// Transaction does both steps.
func (t *Tree[N]) With(store db.IDb) *Tree[N] {
	touched := t.touched
	if touched == nil {
		touched = &scopeSet{scopes: map[int64]struct{}{}}
	}
	return &Tree[N]{
		tm:      db.HollowTransactionManager{}.With(store),
		mapping: t.mapping,
		factory: t.factory,
		cache:   t.cache,
		bound:   true,
		touched: touched,
	}
}

// PurgeTouched drops the cached parents of every scope changed through a bound tree.
// It does nothing on a tree that is not bound.
func (t *Tree[N]) PurgeTouched() {
	if t.touched == nil {
		return
	}
	for _, scope := range t.touched.drain() {
		t.cache.PurgeScope(scope)
	}
}

// Transaction runs fn with a tree bound to a new transaction of the tree's manager.
// The cached parents of the scopes changed by fn are purged after the transaction ends.
// On a bound tree fn joins the outer transaction.
func (t *Tree[N]) Transaction(ctx context.Context, fn func(tx *Tree[N]) error) error {
	if t.bound {
		return fn(t)
	}
	var bound *Tree[N]
	err := t.tm.TransactionContext(ctx, func(DB db.IDb) error {
		bound = t.With(DB)
		return fn(bound)
	})
	if bound != nil {
		bound.PurgeTouched()
	}
	return err
}

func (t *Tree[N]) Mapping() *Mapping {
	return t.mapping
}

func (t *Tree[N]) Cache() *Cache[N] {
	return t.cache
}

func (t *Tree[N]) reader(ctx context.Context) *store[N] {
	return newStore(t.tm.StoreContext(ctx), t.mapping, t.factory)
}

// scopeOf maps a scope argument to the stored scope, 0 for unscoped mappings
func (t *Tree[N]) scopeOf(scope int64) int64 {
	if !t.mapping.IsScoped() {
		return 0
	}
	return scope
}

// readCache is the cache used for lookups
func (t *Tree[N]) readCache() *Cache[N] {
	if t.bound {
		return nil
	}
	return t.cache
}

// mutate runs fn in a transaction. Every scope passed to touch, plus the scope of the node,
// is purged from the cache whatever the outcome.
func (t *Tree[N]) mutate(ctx context.Context, op string, key, scope int64, fn func(s *store[N], touch func(scope int64)) error) error {
	touched := map[int64]struct{}{scope: {}}
	touch := func(s int64) {
		touched[s] = struct{}{}
	}

	logger.Debugf("%s: begin [key=%d scope=%d]", op, key, scope)
	err := t.tm.TransactionContext(ctx, func(DB db.IDb) error {
		return fn(newStore(DB, t.mapping, t.factory), touch)
	})

	for s := range touched {
		t.cache.PurgeScope(s)
		if t.touched != nil {
			t.touched.add(s)
		}
	}

	if err == nil {
		return nil
	}
	logger.Debugf("%s: failed [key=%d scope=%d]: %+v", op, key, scope, err)
	if isTreeError(err) {
		return err
	}
	return transactionFailure(op, key, scope, err)
}

// refresh copies the stored state of the node into it
func (t *Tree[N]) refresh(s *store[N], n N) error {
	fresh, ok, err := s.byKey(*n.KeyRef())
	if err != nil {
		return err
	}
	if !ok {
		return structural("refresh", *n.KeyRef(), n.NodeRecord().Scope, "node no longer exists")
	}
	assign(n, fresh)
	return nil
}

// Reload refreshes the node from the table
func (t *Tree[N]) Reload(ctx context.Context, n N) error {
	return t.refresh(t.reader(ctx), n)
}

// FindByKey loads a node by primary key
func (t *Tree[N]) FindByKey(ctx context.Context, key int64) (N, bool, error) {
	return t.reader(ctx).byKey(key)
}

// Save writes the payload of a node that is in the tree.
// The tree columns are read from the table, so a stale view cannot corrupt the tree.
func (t *Tree[N]) Save(ctx context.Context, n N) error {
	const op = "Save"
	rec := n.NodeRecord()
	if !rec.InTree() {
		return structural(op, *n.KeyRef(), rec.Scope, "node is detached")
	}

	return t.mutate(ctx, op, *n.KeyRef(), rec.Scope, func(s *store[N], touch func(int64)) error {
		stored, ok, err := s.byKey(*n.KeyRef())
		if err != nil {
			return err
		}
		if !ok {
			return structural(op, *n.KeyRef(), rec.Scope, "node no longer exists")
		}
		*rec = *stored.NodeRecord()
		touch(rec.Scope)
		return s.save(n)
	})
}

// attached rejects relation queries on detached nodes
func attached(op string, n Node) error {
	rec := n.NodeRecord()
	if !rec.InTree() {
		return structural(op, *n.KeyRef(), rec.Scope, "node is detached")
	}
	return nil
}
