package nestedset

import (
	"database/sql"
	"fmt"

	"github.com/quintans/faults"

	"github.com/quintans/nestedset/db"
	"github.com/quintans/nestedset/dbx"
)

type ordering struct {
	column *db.Column
	desc   bool
}

func asc(column *db.Column) ordering {
	return ordering{column: column}
}

func desc(column *db.Column) ordering {
	return ordering{column: column, desc: true}
}

// store runs the tree statements inside one db.IDb
type store[N Node] struct {
	db      db.IDb
	m       *Mapping
	factory func() N
}

func newStore[N Node](DB db.IDb, m *Mapping, factory func() N) *store[N] {
	return &store[N]{
		db:      DB,
		m:       m,
		factory: factory,
	}
}

// scoped adds the scope restriction when the mapping is scoped
func (s *store[N]) scoped(scope int64, criteria ...*db.Criteria) []*db.Criteria {
	if s.m.scope != nil {
		criteria = append(criteria, s.m.scope.Matches(scope))
	}
	return criteria
}

func (s *store[N]) dest(n N) []interface{} {
	rec := n.NodeRecord()
	dest := []interface{}{n.KeyRef(), &rec.Left, &rec.Right, &rec.Level}
	if s.m.scope != nil {
		dest = append(dest, &rec.Scope)
	}
	return append(dest, n.Payload()...)
}

func (s *store[N]) query(criteria []*db.Criteria, orders []ordering) *db.Query {
	q := s.db.Query(s.m.table)
	for _, c := range s.m.columns() {
		q.Column(c)
	}
	if len(criteria) > 0 {
		q.Where(criteria...)
	}
	for _, o := range orders {
		q.Order(o.column)
		if o.desc {
			q.Desc()
		}
	}
	return q
}

// find lists the nodes matching the criteria
func (s *store[N]) find(criteria []*db.Criteria, orders ...ordering) ([]N, error) {
	var list []N
	err := s.query(criteria, orders).ListClosure(func(rows *sql.Rows) error {
		n := s.factory()
		if err := rows.Scan(s.dest(n)...); err != nil {
			return faults.Wrap(err)
		}
		list = append(list, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// first returns the first node matching the criteria
func (s *store[N]) first(criteria []*db.Criteria, orders ...ordering) (N, bool, error) {
	n := s.factory()
	ok, err := s.query(criteria, orders).Limit(1).SelectInto(s.dest(n)...)
	if err != nil || !ok {
		var zero N
		return zero, false, err
	}
	return n, true, nil
}

func (s *store[N]) byKey(key int64) (N, bool, error) {
	return s.first([]*db.Criteria{s.m.key.Matches(key)})
}

// count counts the nodes matching the criteria
func (s *store[N]) count(criteria []*db.Criteria) (int64, error) {
	q := s.db.Query(s.m.table)
	if len(criteria) > 0 {
		q.Where(criteria...)
	}
	return q.Count()
}

// maxRight returns the greatest right label of the scope, or 0 if the scope is empty
func (s *store[N]) maxRight(scope int64) (int64, error) {
	q := s.db.Query(s.m.table).Column(db.Max(s.m.right))
	if criteria := s.scoped(scope); len(criteria) > 0 {
		q.Where(criteria...)
	}
	var top sql.NullInt64
	if _, err := q.SelectInto(&top); err != nil {
		return 0, err
	}
	return top.Int64, nil
}

// shiftRL adds delta to the left and right labels that are >= first and, if last > 0, <= last
func (s *store[N]) shiftRL(delta, first, last, scope int64) error {
	if delta == 0 {
		return nil
	}
	for _, col := range []*db.Column{s.m.left, s.m.right} {
		var top interface{}
		if last > 0 {
			top = last
		}
		_, err := s.db.Update(s.m.table).
			Set(col, db.Add(db.Col(col), delta)).
			Where(s.scoped(scope, db.Range(col, first, top))...).
			Execute()
		if err != nil {
			return err
		}
	}
	return nil
}

// shiftLevel adds delta to the level of the nodes inside [first, last]
func (s *store[N]) shiftLevel(delta, first, last, scope int64) error {
	if delta == 0 {
		return nil
	}
	_, err := s.db.Update(s.m.table).
		Set(s.m.level, db.Add(db.Col(s.m.level), delta)).
		Where(s.scoped(scope,
			s.m.left.GreaterOrMatch(first),
			s.m.right.LesserOrMatch(last),
		)...).
		Execute()
	return err
}

// relabel moves the subtree of the plan to its destination, in one statement
func (s *store[N]) relabel(p movePlan) (int64, error) {
	u := s.db.Update(s.m.table).
		Set(s.m.left, db.Add(db.Col(s.m.left), p.delta())).
		Set(s.m.right, db.Add(db.Col(s.m.right), p.delta())).
		Set(s.m.level, db.Add(db.Col(s.m.level), p.levelDelta))
	if s.m.scope != nil {
		u.Set(s.m.scope, p.targetScope)
	}
	return u.Where(s.scoped(p.sourceScope,
		s.m.left.GreaterOrMatch(p.left),
		s.m.right.LesserOrMatch(p.right),
	)...).
		Execute()
}

func (s *store[N]) deleteWhere(criteria []*db.Criteria) (int64, error) {
	d := s.db.Delete(s.m.table)
	if len(criteria) > 0 {
		d.Where(criteria...)
	}
	return d.Execute()
}

// insert writes a new row. A zero key is replaced by the generated one.
func (s *store[N]) insert(n N) error {
	rec := n.NodeRecord()
	key := n.KeyRef()
	i := s.db.Insert(s.m.table)
	if *key != 0 {
		i.Set(s.m.key, *key)
	}
	i.Set(s.m.left, rec.Left).
		Set(s.m.right, rec.Right).
		Set(s.m.level, rec.Level)
	if s.m.scope != nil {
		i.Set(s.m.scope, rec.Scope)
	}
	payload := n.Payload()
	if len(payload) != len(s.m.payload) {
		return faults.Errorf("node has %d payload fields but the mapping has %d columns", len(payload), len(s.m.payload))
	}
	for k, col := range s.m.payload {
		i.Set(col, payload[k])
	}

	id, err := i.Execute()
	if err != nil {
		return err
	}
	if *key == 0 {
		if id == 0 {
			return faults.Errorf("no key was generated for table %s", s.m.table.GetName())
		}
		*key = id
	}
	return nil
}

// save writes the tree columns and the payload of an existing row
func (s *store[N]) save(n N) error {
	rec := n.NodeRecord()
	u := s.db.Update(s.m.table).
		Set(s.m.left, rec.Left).
		Set(s.m.right, rec.Right).
		Set(s.m.level, rec.Level)
	if s.m.scope != nil {
		u.Set(s.m.scope, rec.Scope)
	}
	payload := n.Payload()
	if len(payload) != len(s.m.payload) {
		return faults.Errorf("node has %d payload fields but the mapping has %d columns", len(payload), len(s.m.payload))
	}
	for k, col := range s.m.payload {
		u.Set(col, payload[k])
	}
	affected, err := u.Where(s.m.key.Matches(*n.KeyRef())).Execute()
	if err != nil {
		return err
	}
	if affected == 0 {
		return faults.Wrap(dbx.NoRowsAffected(fmt.Sprintf("no row of %s with key %d", s.m.table.GetName(), *n.KeyRef())))
	}
	return nil
}

func (s *store[N]) setLevel(key, level int64) error {
	affected, err := s.db.Update(s.m.table).
		Set(s.m.level, level).
		Where(s.m.key.Matches(key)).
		Execute()
	if err != nil {
		return err
	}
	if affected == 0 {
		return faults.Wrap(dbx.NoRowsAffected(fmt.Sprintf("no row of %s with key %d", s.m.table.GetName(), key)))
	}
	return nil
}

// countRange counts the nodes of the scope with a label inside [first, last]
func (s *store[N]) countRange(scope, first, last int64) (int64, error) {
	return s.count(s.scoped(scope, db.Or(
		db.Range(s.m.left, first, last),
		db.Range(s.m.right, first, last),
	)))
}
