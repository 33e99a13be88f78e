package nestedset

import (
	"context"

	"github.com/quintans/nestedset/db"
)

func IsInTree(n Node) bool {
	return n.NodeRecord().InTree()
}

func IsRoot(n Node) bool {
	return n.NodeRecord().isRoot()
}

func IsLeaf(n Node) bool {
	return n.NodeRecord().isLeaf()
}

// IsDescendantOf is false for nodes of different scopes
func IsDescendantOf(n, ancestor Node) bool {
	r, a := n.NodeRecord(), ancestor.NodeRecord()
	return r.InTree() && a.InTree() && r.Scope == a.Scope && a.encloses(r)
}

func IsAncestorOf(n, descendant Node) bool {
	return IsDescendantOf(descendant, n)
}

func HasParent(n Node) bool {
	return n.NodeRecord().InTree() && n.NodeRecord().Level > 0
}

// HasChildren is true for nodes that are in the tree and are not leaves
func HasChildren(n Node) bool {
	rec := n.NodeRecord()
	return rec.InTree() && !rec.isLeaf()
}

// predicates

func (s *store[N]) childrenOf(rec *Record) []*db.Criteria {
	return s.scoped(rec.Scope,
		s.m.left.Greater(rec.Left),
		s.m.right.Lesser(rec.Right),
		s.m.level.Matches(rec.Level+1),
	)
}

func (s *store[N]) descendantsOf(rec *Record) []*db.Criteria {
	return s.scoped(rec.Scope,
		s.m.left.Greater(rec.Left),
		s.m.right.Lesser(rec.Right),
	)
}

func (s *store[N]) branchOf(rec *Record) []*db.Criteria {
	return s.scoped(rec.Scope,
		s.m.left.GreaterOrMatch(rec.Left),
		s.m.right.LesserOrMatch(rec.Right),
	)
}

func (s *store[N]) ancestorsOf(rec *Record) []*db.Criteria {
	return s.scoped(rec.Scope,
		s.m.left.Lesser(rec.Left),
		s.m.right.Greater(rec.Right),
	)
}

// Parent returns the nearest enclosing node
func (t *Tree[N]) Parent(ctx context.Context, n N) (N, bool, error) {
	var zero N
	if err := attached("Parent", n); err != nil {
		return zero, false, err
	}
	if !HasParent(n) {
		return zero, false, nil
	}

	rec := n.NodeRecord()
	key := *n.KeyRef()
	cache := t.readCache()
	if p, ok := cache.Get(rec.Scope, key); ok && parentOf(p.NodeRecord(), rec) {
		return p, true, nil
	}

	gen := cache.generation(rec.Scope)
	s := t.reader(ctx)
	p, ok, err := s.first(s.ancestorsOf(rec), desc(s.m.level))
	if err != nil || !ok {
		return zero, false, err
	}
	cache.putIfCurrent(rec.Scope, key, p, gen)
	return p, true, nil
}

// parentOf reports if p can be the parent of the node with record rec.
// A cached parent that no longer encloses the node one level up is stale.
func parentOf(p, rec *Record) bool {
	return p.Scope == rec.Scope && p.encloses(rec) && p.Level == rec.Level-1
}

// PrevSibling returns the sibling right before the node. Roots have no siblings.
func (t *Tree[N]) PrevSibling(ctx context.Context, n N) (N, bool, error) {
	var zero N
	if err := attached("PrevSibling", n); err != nil {
		return zero, false, err
	}
	rec := n.NodeRecord()
	if rec.isRoot() {
		return zero, false, nil
	}
	s := t.reader(ctx)
	return s.first(s.scoped(rec.Scope, s.m.right.Matches(rec.Left-1)))
}

// NextSibling returns the sibling right after the node. Roots have no siblings.
func (t *Tree[N]) NextSibling(ctx context.Context, n N) (N, bool, error) {
	var zero N
	if err := attached("NextSibling", n); err != nil {
		return zero, false, err
	}
	rec := n.NodeRecord()
	if rec.isRoot() {
		return zero, false, nil
	}
	s := t.reader(ctx)
	return s.first(s.scoped(rec.Scope, s.m.left.Matches(rec.Right+1)))
}

// HasPrevSibling reports if a sibling comes right before the node
func (t *Tree[N]) HasPrevSibling(ctx context.Context, n N) (bool, error) {
	_, ok, err := t.PrevSibling(ctx, n)
	return ok, err
}

// HasNextSibling reports if a sibling comes right after the node
func (t *Tree[N]) HasNextSibling(ctx context.Context, n N) (bool, error) {
	_, ok, err := t.NextSibling(ctx, n)
	return ok, err
}

// Children lists the direct children, in sibling order
func (t *Tree[N]) Children(ctx context.Context, n N, criteria ...*db.Criteria) ([]N, error) {
	if err := attached("Children", n); err != nil {
		return nil, err
	}
	if IsLeaf(n) {
		return nil, nil
	}
	s := t.reader(ctx)
	return s.find(append(s.childrenOf(n.NodeRecord()), criteria...), asc(s.m.left))
}

func (t *Tree[N]) CountChildren(ctx context.Context, n N, criteria ...*db.Criteria) (int64, error) {
	if err := attached("CountChildren", n); err != nil {
		return 0, err
	}
	if IsLeaf(n) {
		return 0, nil
	}
	s := t.reader(ctx)
	return s.count(append(s.childrenOf(n.NodeRecord()), criteria...))
}

func (t *Tree[N]) FirstChild(ctx context.Context, n N) (N, bool, error) {
	var zero N
	if err := attached("FirstChild", n); err != nil {
		return zero, false, err
	}
	if IsLeaf(n) {
		return zero, false, nil
	}
	rec := n.NodeRecord()
	s := t.reader(ctx)
	return s.first(s.scoped(rec.Scope, s.m.left.Matches(rec.Left+1)))
}

func (t *Tree[N]) LastChild(ctx context.Context, n N) (N, bool, error) {
	var zero N
	if err := attached("LastChild", n); err != nil {
		return zero, false, err
	}
	if IsLeaf(n) {
		return zero, false, nil
	}
	rec := n.NodeRecord()
	s := t.reader(ctx)
	return s.first(s.scoped(rec.Scope, s.m.right.Matches(rec.Right-1)))
}

// Descendants lists the whole subtree below the node, ordered by left
func (t *Tree[N]) Descendants(ctx context.Context, n N, criteria ...*db.Criteria) ([]N, error) {
	if err := attached("Descendants", n); err != nil {
		return nil, err
	}
	if IsLeaf(n) {
		return nil, nil
	}
	s := t.reader(ctx)
	return s.find(append(s.descendantsOf(n.NodeRecord()), criteria...), asc(s.m.left))
}

func (t *Tree[N]) CountDescendants(ctx context.Context, n N, criteria ...*db.Criteria) (int64, error) {
	if err := attached("CountDescendants", n); err != nil {
		return 0, err
	}
	if IsLeaf(n) {
		return 0, nil
	}
	s := t.reader(ctx)
	return s.count(append(s.descendantsOf(n.NodeRecord()), criteria...))
}

// Branch lists the node followed by its descendants
func (t *Tree[N]) Branch(ctx context.Context, n N, criteria ...*db.Criteria) ([]N, error) {
	if err := attached("Branch", n); err != nil {
		return nil, err
	}
	s := t.reader(ctx)
	return s.find(append(s.branchOf(n.NodeRecord()), criteria...), asc(s.m.left))
}

// Ancestors lists the enclosing nodes, root first
func (t *Tree[N]) Ancestors(ctx context.Context, n N, criteria ...*db.Criteria) ([]N, error) {
	if err := attached("Ancestors", n); err != nil {
		return nil, err
	}
	if !HasParent(n) {
		return nil, nil
	}
	s := t.reader(ctx)
	return s.find(append(s.ancestorsOf(n.NodeRecord()), criteria...), asc(s.m.left))
}

// Path lists the ancestors and then the node
func (t *Tree[N]) Path(ctx context.Context, n N) ([]N, error) {
	ancestors, err := t.Ancestors(ctx, n)
	if err != nil {
		return nil, err
	}
	return append(ancestors, n), nil
}

// Siblings lists the children of the parent of the node. A root has no siblings.
func (t *Tree[N]) Siblings(ctx context.Context, n N, includeSelf bool, criteria ...*db.Criteria) ([]N, error) {
	if err := attached("Siblings", n); err != nil {
		return nil, err
	}
	parent, ok, err := t.Parent(ctx, n)
	if err != nil || !ok {
		return nil, err
	}
	if !includeSelf {
		criteria = append(criteria, t.mapping.key.Different(*n.KeyRef()))
	}
	return t.Children(ctx, parent, criteria...)
}

// Root returns the root of a scope. The scope is ignored by unscoped mappings.
func (t *Tree[N]) Root(ctx context.Context, scope int64) (N, bool, error) {
	s := t.reader(ctx)
	return s.first(s.scoped(scope, s.m.left.Matches(1)))
}

// Roots lists the root of every scope
func (t *Tree[N]) Roots(ctx context.Context) ([]N, error) {
	s := t.reader(ctx)
	orders := []ordering{asc(s.m.key)}
	if s.m.scope != nil {
		orders = []ordering{asc(s.m.scope)}
	}
	return s.find([]*db.Criteria{s.m.left.Matches(1)}, orders...)
}

// FindTree lists every node of a scope, ordered by left
func (t *Tree[N]) FindTree(ctx context.Context, scope int64, criteria ...*db.Criteria) ([]N, error) {
	s := t.reader(ctx)
	return s.find(append(s.scoped(scope), criteria...), asc(s.m.left))
}
