package nestedset

import (
	"context"
	"errors"

	tk "github.com/quintans/toolkit"
)

// Iterator walks a node and its next siblings, one level only.
// Use Children to descend, or Walk for a full pre-order traversal.
// It is not safe to mutate the tree while iterating.
type Iterator[N Node] struct {
	ctx     context.Context
	tree    *Tree[N]
	start   N
	current N
	// empty iterators have no start node
	empty bool
	valid bool
	err   error
}

func (t *Tree[N]) Iterator(ctx context.Context, n N) *Iterator[N] {
	it := &Iterator[N]{
		ctx:   ctx,
		tree:  t,
		start: n,
	}
	it.Rewind()
	return it
}

// Rewind goes back to the starting node
func (it *Iterator[N]) Rewind() {
	it.current = it.start
	it.err = nil
	it.valid = !it.empty && IsInTree(it.start)
}

func (it *Iterator[N]) Valid() bool {
	return it.valid && it.err == nil
}

func (it *Iterator[N]) Current() N {
	return it.current
}

// Key is the path of primary keys from the root to the current node, joined by dots
func (it *Iterator[N]) Key() string {
	if !it.Valid() {
		return ""
	}
	path, err := it.tree.Path(it.ctx, it.current)
	if err != nil {
		it.err = err
		return ""
	}
	j := tk.NewJoiner(".")
	for _, n := range path {
		j.Add(*n.KeyRef())
	}
	return j.String()
}

// Next moves to the next sibling. The iterator becomes invalid when there is none.
func (it *Iterator[N]) Next() bool {
	if !it.Valid() {
		return false
	}
	next, ok, err := it.tree.NextSibling(it.ctx, it.current)
	if err != nil {
		it.err = err
		return false
	}
	if !ok {
		it.valid = false
		return false
	}
	it.current = next
	return true
}

func (it *Iterator[N]) HasChildren() bool {
	return it.Valid() && HasChildren(it.current)
}

// Children returns an iterator over the children of the current node
func (it *Iterator[N]) Children() *Iterator[N] {
	child := &Iterator[N]{
		ctx:   it.ctx,
		tree:  it.tree,
		empty: true,
	}
	if !it.HasChildren() {
		return child
	}
	first, ok, err := it.tree.FirstChild(it.ctx, it.current)
	if err != nil {
		it.err = err
		child.err = err
		return child
	}
	if ok {
		child.start = first
		child.empty = false
		child.Rewind()
	}
	return child
}

// Err returns the first error hit while iterating
func (it *Iterator[N]) Err() error {
	return it.err
}

// Walk visits the node and every descendant in pre-order.
// depth is 0 for the node. If fn returns ErrSkipChildren the descendants of the visited node are skipped.
func (t *Tree[N]) Walk(ctx context.Context, n N, fn func(n N, depth int) error) error {
	if err := attached("Walk", n); err != nil {
		return err
	}
	err := fn(n, 0)
	if errors.Is(err, ErrSkipChildren) {
		return nil
	}
	if err != nil {
		return err
	}
	root := t.Iterator(ctx, n)
	if !root.HasChildren() {
		return nil
	}
	return walk(root.Children(), 1, fn)
}

func walk[N Node](it *Iterator[N], depth int, fn func(n N, depth int) error) error {
	for ; it.Valid(); it.Next() {
		err := fn(it.Current(), depth)
		if errors.Is(err, ErrSkipChildren) {
			continue
		}
		if err != nil {
			return err
		}
		if it.HasChildren() {
			if err := walk(it.Children(), depth+1, fn); err != nil {
				return err
			}
		}
	}
	return it.Err()
}
