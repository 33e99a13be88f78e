package nestedset

import (
	"context"
)

type position int

const (
	firstChild position = iota
	lastChild
	prevSibling
	nextSibling
)

func (p position) sibling() bool {
	return p == prevSibling || p == nextSibling
}

// destination returns the left label and the level of a node placed at p relative to ref
func (p position) destination(ref *Record) (int64, int64) {
	switch p {
	case firstChild:
		return ref.Left + 1, ref.Level + 1
	case lastChild:
		return ref.Right, ref.Level + 1
	case prevSibling:
		return ref.Left, ref.Level
	default:
		return ref.Right + 1, ref.Level
	}
}

// MakeRoot inserts a detached node as the root of its scope
func (t *Tree[N]) MakeRoot(ctx context.Context, n N) error {
	const op = "MakeRoot"
	rec := n.NodeRecord()
	key := *n.KeyRef()
	if rec.InTree() {
		return structural(op, key, rec.Scope, "node is already in the tree")
	}
	if !t.mapping.IsScoped() {
		rec.Scope = 0
	}

	snapshot := *rec
	err := t.mutate(ctx, op, key, rec.Scope, func(s *store[N], touch func(int64)) error {
		roots, err := s.count(s.scoped(rec.Scope, s.m.left.Matches(1)))
		if err != nil {
			return err
		}
		if roots > 0 {
			return uniqueness(op, key, rec.Scope, nil)
		}
		rec.Left, rec.Right, rec.Level = 1, 2, 0
		return s.insert(n)
	})
	if err == nil {
		return nil
	}

	*rec = snapshot
	*n.KeyRef() = key
	if IsTransactionFailure(err) {
		// a concurrent root may have been caught by the unique index
		s := t.reader(ctx)
		if roots, cerr := s.count(s.scoped(rec.Scope, s.m.left.Matches(1))); cerr == nil && roots > 0 {
			return uniqueness(op, key, rec.Scope, err)
		}
	}
	return err
}

// InsertAsFirstChildOf inserts a detached node before the children of parent
func (t *Tree[N]) InsertAsFirstChildOf(ctx context.Context, n, parent N) error {
	return t.insert(ctx, "InsertAsFirstChildOf", n, parent, firstChild)
}

// InsertAsLastChildOf inserts a detached node after the children of parent
func (t *Tree[N]) InsertAsLastChildOf(ctx context.Context, n, parent N) error {
	return t.insert(ctx, "InsertAsLastChildOf", n, parent, lastChild)
}

// InsertAsPrevSiblingOf inserts a detached node right before sibling, which must not be a root
func (t *Tree[N]) InsertAsPrevSiblingOf(ctx context.Context, n, sibling N) error {
	return t.insert(ctx, "InsertAsPrevSiblingOf", n, sibling, prevSibling)
}

// InsertAsNextSiblingOf inserts a detached node right after sibling, which must not be a root
func (t *Tree[N]) InsertAsNextSiblingOf(ctx context.Context, n, sibling N) error {
	return t.insert(ctx, "InsertAsNextSiblingOf", n, sibling, nextSibling)
}

// AddChild inserts child as the first child of parent
func (t *Tree[N]) AddChild(ctx context.Context, parent, child N) error {
	return t.insert(ctx, "AddChild", child, parent, firstChild)
}

func (t *Tree[N]) insert(ctx context.Context, op string, n, ref N, pos position) error {
	rec := n.NodeRecord()
	key := *n.KeyRef()
	refKey := *ref.KeyRef()
	if rec.InTree() {
		return structural(op, key, rec.Scope, "node is already in the tree")
	}
	if !IsInTree(ref) {
		return structural(op, key, ref.NodeRecord().Scope, "reference node %d is detached", refKey)
	}
	if pos.sibling() && IsRoot(ref) {
		return structural(op, key, ref.NodeRecord().Scope, "a root cannot have siblings")
	}

	snapshot := *rec
	err := t.mutate(ctx, op, key, ref.NodeRecord().Scope, func(s *store[N], touch func(int64)) error {
		stored, ok, err := s.byKey(refKey)
		if err != nil {
			return err
		}
		if !ok || !stored.NodeRecord().InTree() {
			return structural(op, key, ref.NodeRecord().Scope, "reference node %d is not in the tree", refKey)
		}
		r := stored.NodeRecord()
		if pos.sibling() && r.isRoot() {
			return structural(op, key, r.Scope, "a root cannot have siblings")
		}
		touch(r.Scope)

		left, level := pos.destination(r)
		logger.Debugf("%s: placing node at [%d, %d] level %d of scope %d", op, left, left+1, level, r.Scope)
		if err := s.shiftRL(2, left, 0, r.Scope); err != nil {
			return err
		}
		rec.Left, rec.Right, rec.Level, rec.Scope = left, left+1, level, r.Scope
		return s.insert(n)
	})
	if err != nil {
		*rec = snapshot
		*n.KeyRef() = key
		return err
	}

	s := t.reader(ctx)
	if err := t.refresh(s, n); err != nil {
		return err
	}
	return t.refresh(s, ref)
}

// MoveToFirstChildOf moves the subtree of the node before the children of parent
func (t *Tree[N]) MoveToFirstChildOf(ctx context.Context, n, parent N) error {
	return t.move(ctx, "MoveToFirstChildOf", n, parent, firstChild)
}

// MoveToLastChildOf moves the subtree of the node after the children of parent
func (t *Tree[N]) MoveToLastChildOf(ctx context.Context, n, parent N) error {
	return t.move(ctx, "MoveToLastChildOf", n, parent, lastChild)
}

// MoveToPrevSiblingOf moves the subtree of the node right before sibling, which must not be a root
func (t *Tree[N]) MoveToPrevSiblingOf(ctx context.Context, n, sibling N) error {
	return t.move(ctx, "MoveToPrevSiblingOf", n, sibling, prevSibling)
}

// MoveToNextSiblingOf moves the subtree of the node right after sibling, which must not be a root
func (t *Tree[N]) MoveToNextSiblingOf(ctx context.Context, n, sibling N) error {
	return t.move(ctx, "MoveToNextSiblingOf", n, sibling, nextSibling)
}

func (t *Tree[N]) move(ctx context.Context, op string, n, target N, pos position) error {
	rec := n.NodeRecord()
	key := *n.KeyRef()
	tgtKey := *target.KeyRef()
	if err := attached(op, n); err != nil {
		return err
	}
	if !IsInTree(target) {
		return structural(op, key, rec.Scope, "target node %d is detached", tgtKey)
	}
	if tgtKey == key || IsDescendantOf(target, n) {
		return cycle(op, key, rec.Scope, "target node %d is inside the moving subtree", tgtKey)
	}
	if pos.sibling() && IsRoot(target) {
		return structural(op, key, rec.Scope, "a root cannot have siblings")
	}

	err := t.mutate(ctx, op, key, rec.Scope, func(s *store[N], touch func(int64)) error {
		cur, ok, err := s.byKey(key)
		if err != nil {
			return err
		}
		if !ok || !cur.NodeRecord().InTree() {
			return structural(op, key, rec.Scope, "node is not in the tree")
		}
		tgt, ok, err := s.byKey(tgtKey)
		if err != nil {
			return err
		}
		if !ok || !tgt.NodeRecord().InTree() {
			return structural(op, key, rec.Scope, "target node %d is not in the tree", tgtKey)
		}

		c, g := cur.NodeRecord(), tgt.NodeRecord()
		if c.Scope == g.Scope && g.Left >= c.Left && g.Right <= c.Right {
			return cycle(op, key, c.Scope, "target node %d is inside the moving subtree", tgtKey)
		}
		if pos.sibling() && g.isRoot() {
			return structural(op, key, g.Scope, "a root cannot have siblings")
		}
		touch(c.Scope)
		touch(g.Scope)

		destLeft, level := pos.destination(g)
		return t.moveSubtree(s, op, key, c, destLeft, level-c.Level, g.Scope)
	})
	if err != nil {
		return err
	}

	s := t.reader(ctx)
	if err := t.refresh(s, n); err != nil {
		return err
	}
	return t.refresh(s, target)
}

// MoveSubtreeTo moves the subtree of the node so that it starts at destLeft of targetScope,
// adding levelDelta to the levels of the subtree.
// The target scope is ignored by unscoped mappings.
func (t *Tree[N]) MoveSubtreeTo(ctx context.Context, n N, destLeft, levelDelta, targetScope int64) error {
	const op = "MoveSubtreeTo"
	rec := n.NodeRecord()
	key := *n.KeyRef()
	if err := attached(op, n); err != nil {
		return err
	}

	err := t.mutate(ctx, op, key, rec.Scope, func(s *store[N], touch func(int64)) error {
		cur, ok, err := s.byKey(key)
		if err != nil {
			return err
		}
		if !ok || !cur.NodeRecord().InTree() {
			return structural(op, key, rec.Scope, "node is not in the tree")
		}
		c := cur.NodeRecord()
		scope := targetScope
		if !t.mapping.IsScoped() {
			scope = c.Scope
		}
		touch(c.Scope)
		touch(scope)
		return t.moveSubtree(s, op, key, c, destLeft, levelDelta, scope)
	})
	if err != nil {
		return err
	}
	return t.Reload(ctx, n)
}

// moveSubtree relocates the subtree of c to destLeft of targetScope
func (t *Tree[N]) moveSubtree(s *store[N], op string, key int64, c *Record, destLeft, levelDelta, targetScope int64) error {
	if c.Scope != targetScope {
		return movePlan{
			sourceScope: c.Scope,
			targetScope: targetScope,
			left:        c.Left,
			right:       c.Right,
			destLeft:    destLeft,
			levelDelta:  levelDelta,
		}.execute(s, op, key)
	}

	if destLeft > c.Left && destLeft <= c.Right {
		return cycle(op, key, c.Scope, "destination %d is inside the moving subtree [%d, %d]", destLeft, c.Left, c.Right)
	}
	top, err := s.maxRight(c.Scope)
	if err != nil {
		return err
	}
	if destLeft < 2 || destLeft > top {
		return structural(op, key, c.Scope, "destination %d is outside the tree (1, %d]", destLeft, top)
	}

	left, right := c.Left, c.Right
	size := right - left + 1
	logger.Debugf("%s: moving [%d, %d] to %d, level delta %d, scope %d", op, left, right, destLeft, levelDelta, c.Scope)

	// make room
	if err := s.shiftRL(size, destLeft, 0, c.Scope); err != nil {
		return err
	}
	if left >= destLeft {
		left += size
		right += size
	}
	if err := s.shiftLevel(levelDelta, left, right, c.Scope); err != nil {
		return err
	}
	if err := s.shiftRL(destLeft-left, left, right, c.Scope); err != nil {
		return err
	}
	// close the gap
	return s.shiftRL(-size, right+1, 0, c.Scope)
}

// DeleteDescendants removes every descendant of the node, which becomes a leaf.
// It returns the number of removed nodes.
func (t *Tree[N]) DeleteDescendants(ctx context.Context, n N) (int64, error) {
	const op = "DeleteDescendants"
	rec := n.NodeRecord()
	key := *n.KeyRef()
	if err := attached(op, n); err != nil {
		return 0, err
	}

	var deleted int64
	err := t.mutate(ctx, op, key, rec.Scope, func(s *store[N], touch func(int64)) error {
		cur, ok, err := s.byKey(key)
		if err != nil {
			return err
		}
		if !ok || !cur.NodeRecord().InTree() {
			return structural(op, key, rec.Scope, "node is not in the tree")
		}
		c := cur.NodeRecord()
		touch(c.Scope)
		if c.isLeaf() {
			return nil
		}

		deleted, err = s.deleteWhere(s.descendantsOf(c))
		if err != nil {
			return err
		}
		logger.Debugf("%s: deleted %d nodes inside [%d, %d] of scope %d", op, deleted, c.Left, c.Right, c.Scope)
		// includes the right label of the node itself
		return s.shiftRL(c.Left-c.Right+1, c.Right, 0, c.Scope)
	})
	if err != nil {
		return 0, err
	}
	return deleted, t.Reload(ctx, n)
}

// Delete removes a node that is not a root, along with its descendants.
// The node is left detached.
func (t *Tree[N]) Delete(ctx context.Context, n N) error {
	const op = "Delete"
	rec := n.NodeRecord()
	key := *n.KeyRef()
	if err := attached(op, n); err != nil {
		return err
	}
	if rec.isRoot() {
		return protectedDeletion(op, key, rec.Scope)
	}

	err := t.mutate(ctx, op, key, rec.Scope, func(s *store[N], touch func(int64)) error {
		cur, ok, err := s.byKey(key)
		if err != nil {
			return err
		}
		if !ok || !cur.NodeRecord().InTree() {
			return structural(op, key, rec.Scope, "node is not in the tree")
		}
		c := cur.NodeRecord()
		touch(c.Scope)
		if c.isRoot() {
			return protectedDeletion(op, key, c.Scope)
		}

		deleted, err := s.deleteWhere(s.branchOf(c))
		if err != nil {
			return err
		}
		logger.Debugf("%s: deleted %d nodes inside [%d, %d] of scope %d", op, deleted, c.Left, c.Right, c.Scope)
		return s.shiftRL(-c.width(), c.Right+1, 0, c.Scope)
	})
	if err != nil {
		return err
	}
	*rec = Record{}
	return nil
}

// DeleteTree removes every node of a scope, root included.
// The scope is ignored by unscoped mappings.
func (t *Tree[N]) DeleteTree(ctx context.Context, scope int64) (int64, error) {
	const op = "DeleteTree"
	scope = t.scopeOf(scope)
	var deleted int64
	err := t.mutate(ctx, op, 0, scope, func(s *store[N], touch func(int64)) error {
		var err error
		deleted, err = s.deleteWhere(s.scoped(scope))
		return err
	})
	return deleted, err
}
