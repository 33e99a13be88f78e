package db

// ParsedSql holds the named parameters found in a SQL statement.
type ParsedSql struct {
	sql   string
	Names []string
	// start and end positions of each parameter in the statement
	Indexes [][]int
}

func NewParsedSql(sql string) *ParsedSql {
	return &ParsedSql{
		sql:     sql,
		Names:   make([]string, 0),
		Indexes: make([][]int, 0),
	}
}

// AddNamedParameter registers a parameter found between startIndex and endIndex
func (p *ParsedSql) AddNamedParameter(name string, startIndex int, endIndex int) {
	p.Names = append(p.Names, name)
	p.Indexes = append(p.Indexes, []int{startIndex, endIndex})
}

func (p *ParsedSql) String() string {
	return p.sql
}
