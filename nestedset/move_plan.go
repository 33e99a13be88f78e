package nestedset

// movePlan stages a subtree move between two scopes
type movePlan struct {
	sourceScope int64
	targetScope int64
	left        int64
	right       int64
	destLeft    int64
	levelDelta  int64
}

func (p movePlan) size() int64 {
	return p.right - p.left + 1
}

// delta is the offset applied to the labels of the subtree, after the room was made
func (p movePlan) delta() int64 {
	return p.destLeft - p.left
}

// execute runs the plan: room in the target, relabel, then close the gap in the source.
// The labels never leave the positive range.
func (p movePlan) execute(s storer, op string, key int64) error {
	size := p.size()

	top, err := s.maxRight(p.targetScope)
	if err != nil {
		return err
	}
	if p.destLeft < 2 || p.destLeft > top {
		return structural(op, key, p.targetScope, "destination %d is outside the tree (1, %d]", p.destLeft, top)
	}

	if err := s.shiftRL(size, p.destLeft, 0, p.targetScope); err != nil {
		return err
	}

	busy, err := s.countRange(p.targetScope, p.destLeft, p.destLeft+size-1)
	if err != nil {
		return err
	}
	if busy > 0 {
		return structural(op, key, p.targetScope, "range [%d, %d] is not free", p.destLeft, p.destLeft+size-1)
	}

	moved, err := s.relabel(p)
	if err != nil {
		return err
	}
	if moved != size/2 {
		return structural(op, key, p.sourceScope, "relabeled %d nodes instead of %d", moved, size/2)
	}

	logger.Debugf("%s: moved [%d, %d] of scope %d to %d of scope %d", op, p.left, p.right, p.sourceScope, p.destLeft, p.targetScope)

	return s.shiftRL(-size, p.right+1, 0, p.sourceScope)
}

// storer is the part of the store the plan needs
type storer interface {
	maxRight(scope int64) (int64, error)
	shiftRL(delta, first, last, scope int64) error
	countRange(scope, first, last int64) (int64, error)
	relabel(p movePlan) (int64, error)
}
