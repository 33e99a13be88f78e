package db

type Criteria struct {
	*Token
	IsNot bool
}

var _ Tokener = &Criteria{}

func NewCriteria(operator string, members ...interface{}) *Criteria {
	c := new(Criteria)
	c.Token = NewToken(operator, members...)
	return c
}

func (c *Criteria) Not() *Criteria {
	c.IsNot = !c.IsNot
	return c
}

func (c *Criteria) Clone() interface{} {
	crit := new(Criteria)
	crit.Token = c.Token.Clone().(*Token)
	crit.IsNot = c.IsNot
	return crit
}

func (c *Criteria) And(criteria ...*Criteria) *Criteria {
	return And(append([]*Criteria{c}, criteria...)...)
}

func (c *Criteria) Or(criteria ...*Criteria) *Criteria {
	return Or(append([]*Criteria{c}, criteria...)...)
}
