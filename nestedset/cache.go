package nestedset

import (
	"reflect"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/quintans/faults"
)

const DefaultCacheSize = 1024

type cacheKey struct {
	scope int64
	key   int64
}

// Cache keeps the parent of recently visited nodes.
// A nil *Cache is valid and caches nothing.
type Cache[N Node] struct {
	lru     *lru.Cache[cacheKey, N]
	factory func() N

	mu sync.Mutex
	// purges counts the purges of each scope, epoch the full purges
	purges map[int64]uint64
	epoch  uint64
}

func NewCache[N Node](size int, factory func() N) (*Cache[N], error) {
	l, err := lru.New[cacheKey, N](size)
	if err != nil {
		return nil, faults.Wrap(err)
	}
	return &Cache[N]{
		lru:     l,
		factory: factory,
		purges:  map[int64]uint64{},
	}, nil
}

// Get returns a copy of the parent cached for the node with key in scope
func (c *Cache[N]) Get(scope, key int64) (N, bool) {
	var zero N
	if c == nil {
		return zero, false
	}
	n, ok := c.lru.Get(cacheKey{scope, key})
	if !ok {
		return zero, false
	}
	return c.clone(n), true
}

func (c *Cache[N]) Put(scope, key int64, parent N) {
	if c == nil {
		return
	}
	c.lru.Add(cacheKey{scope, key}, c.clone(parent))
}

// generation grows with every purge that reaches scope
func (c *Cache[N]) generation(scope int64) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch + c.purges[scope]
}

// putIfCurrent caches parent unless scope was purged after gen was read.
// A parent read before a purge may come from rows the purging mutation replaced.
func (c *Cache[N]) putIfCurrent(scope, key int64, parent N, gen uint64) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch+c.purges[scope] != gen {
		return false
	}
	c.lru.Add(cacheKey{scope, key}, c.clone(parent))
	return true
}

// PurgeScope removes the entries of one scope
func (c *Cache[N]) PurgeScope(scope int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purges[scope]++
	purged := 0
	for _, k := range c.lru.Keys() {
		if k.scope == scope {
			c.lru.Remove(k)
			purged++
		}
	}
	if purged > 0 {
		logger.Debugf("purged %d cached parents of scope %d", purged, scope)
	}
}

func (c *Cache[N]) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.lru.Purge()
}

func (c *Cache[N]) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

func (c *Cache[N]) clone(n N) N {
	return clone(n, c.factory)
}

func clone[N Node](src N, factory func() N) N {
	dst := factory()
	assign(dst, src)
	return dst
}

// assign copies the tree columns, the key and the payload of src into dst
func assign(dst, src Node) {
	*dst.NodeRecord() = *src.NodeRecord()
	*dst.KeyRef() = *src.KeyRef()
	from := src.Payload()
	for k, p := range dst.Payload() {
		if k < len(from) {
			reflect.ValueOf(p).Elem().Set(reflect.ValueOf(from[k]).Elem())
		}
	}
}
