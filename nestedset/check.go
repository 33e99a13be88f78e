package nestedset

import (
	"context"
)

// Validate checks that the labels of a scope form one gapless tree with consistent levels.
// The first offending node is reported as a StructuralViolation.
func (t *Tree[N]) Validate(ctx context.Context, scope int64) error {
	const op = "Validate"
	scope = t.scopeOf(scope)
	nodes, err := t.FindTree(ctx, scope)
	if err != nil {
		return err
	}
	return validate(op, scope, nodes)
}

func validate[N Node](op string, scope int64, nodes []N) error {
	var stack []N
	next := int64(1)
	// unwind pops the nodes that end before label
	unwind := func(label int64) error {
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			r := top.NodeRecord()
			if label > 0 && r.Right > label {
				return nil
			}
			if r.Right != next {
				return structural(op, *top.KeyRef(), scope, "right is %d, expected %d", r.Right, next)
			}
			next++
			stack = stack[:len(stack)-1]
		}
		return nil
	}

	for k, n := range nodes {
		r := n.NodeRecord()
		if r.Right <= r.Left {
			return structural(op, *n.KeyRef(), scope, "interval [%d, %d] is empty", r.Left, r.Right)
		}
		if err := unwind(r.Left); err != nil {
			return err
		}
		if r.Left != next {
			return structural(op, *n.KeyRef(), scope, "left is %d, expected %d", r.Left, next)
		}
		next++
		if k > 0 && len(stack) == 0 {
			return structural(op, *n.KeyRef(), scope, "second root at %d", r.Left)
		}
		if len(stack) > 0 && r.Right > stack[len(stack)-1].NodeRecord().Right {
			return structural(op, *n.KeyRef(), scope, "interval [%d, %d] overlaps its parent", r.Left, r.Right)
		}
		if r.Level != int64(len(stack)) {
			return structural(op, *n.KeyRef(), scope, "level is %d, expected %d", r.Level, len(stack))
		}
		stack = append(stack, n)
	}
	return unwind(0)
}

// FixLevels recomputes the levels of a scope from the intervals.
// It returns the number of updated nodes.
func (t *Tree[N]) FixLevels(ctx context.Context, scope int64) (int64, error) {
	const op = "FixLevels"
	scope = t.scopeOf(scope)
	var fixed int64
	err := t.mutate(ctx, op, 0, scope, func(s *store[N], touch func(int64)) error {
		nodes, err := s.find(s.scoped(scope), asc(s.m.left))
		if err != nil {
			return err
		}
		var rights []int64
		for _, n := range nodes {
			r := n.NodeRecord()
			for len(rights) > 0 && rights[len(rights)-1] < r.Left {
				rights = rights[:len(rights)-1]
			}
			level := int64(len(rights))
			if r.Level != level {
				logger.Debugf("%s: node %d level %d -> %d", op, *n.KeyRef(), r.Level, level)
				if err := s.setLevel(*n.KeyRef(), level); err != nil {
					return err
				}
				fixed++
			}
			rights = append(rights, r.Right)
		}
		return nil
	})
	return fixed, err
}
