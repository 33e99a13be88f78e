package db

import (
	tk "github.com/quintans/toolkit"
	"github.com/quintans/toolkit/ext"
)

const (
	TOKEN_COLUMN = "COLUMN"
	TOKEN_PARAM  = "PARAM"
	TOKEN_RAW    = "RAW"
	TOKEN_NULL   = "NULL"

	// conditions
	TOKEN_EQ     = "EQ"
	TOKEN_NEQ    = "NEQ"
	TOKEN_GT     = "GT"
	TOKEN_GTEQ   = "GTEQ"
	TOKEN_LT     = "LT"
	TOKEN_LTEQ   = "LTEQ"
	TOKEN_RANGE  = "RANGE"
	TOKEN_ISNULL = "ISNULL"
	TOKEN_IN     = "IN"
	TOKEN_AND    = "AND"
	TOKEN_OR     = "OR"
	TOKEN_NOT    = "NOT"

	// functions
	TOKEN_ADD          = "ADD"
	TOKEN_COUNT        = "COUNT"
	TOKEN_COUNT_COLUMN = "COUNT_COLUMN"
	TOKEN_MAX          = "MAX"
)

var _ tk.Base = &Token{}

// tokenizeOne converts the interface to a token.
func tokenizeOne(v interface{}) Tokener {
	var token Tokener
	switch t := v.(type) {
	case *Column:
		token = NewColumnHolder(t)
	case Tokener:
		token = t.Clone().(Tokener)
	default:
		token = Raw(t)
	}
	return token
}

func tokenizeAll(values []interface{}) []Tokener {
	tokens := make([]Tokener, len(values))
	for k, v := range values {
		tokens[k] = tokenizeOne(v)
	}
	return tokens
}

type Tokener interface {
	tk.Clonable

	GetAlias() string
	SetAlias(alias string)
	SetTableAlias(tableAlias string)
	GetTableAlias() string
	IsNil() bool
	GetMembers() []Tokener
	SetMembers(members ...Tokener)
	SetValue(value interface{})
	GetValue() interface{}
	GetOperator() string
	SetOperator(operator string)
}

type Token struct {
	Operator string
	Members  []Tokener
	Value    interface{}
	Alias    string
	hash     int

	tableAlias string
}

var _ Tokener = &Token{}

func NewToken(operator string, members ...interface{}) *Token {
	this := new(Token)
	this.Operator = operator
	if members != nil {
		this.Members = tokenizeAll(members)
	}
	return this
}

func NewEndToken(operator string, o interface{}) *Token {
	this := new(Token)
	this.Operator = operator
	this.Value = o
	return this
}

func (t *Token) GetOperator() string {
	return t.Operator
}

func (t *Token) SetOperator(operator string) {
	t.Operator = operator
}

func (t *Token) GetAlias() string {
	return t.Alias
}

func (t *Token) SetAlias(alias string) {
	t.Alias = alias
}

// SetTableAlias propagates the table alias to the members
func (t *Token) SetTableAlias(tableAlias string) {
	t.tableAlias = tableAlias
	for _, tok := range t.Members {
		if tok != nil {
			tok.SetTableAlias(tableAlias)
		}
	}
}

func (t *Token) GetTableAlias() string {
	return t.tableAlias
}

func (t *Token) IsNil() bool {
	return t.Members == nil && ext.IsNil(t.Value)
}

func (t *Token) GetMembers() []Tokener {
	return t.Members
}

func (t *Token) SetMembers(members ...Tokener) {
	t.Members = members
}

func (t *Token) SetValue(value interface{}) {
	t.Value = value
}

func (t *Token) GetValue() interface{} {
	return t.Value
}

func (t *Token) String() string {
	var sb tk.StrBuffer
	sb.Add("{operator=", t.Operator)
	if t.Members != nil {
		sb.Add(", members=[")
		for i, o := range t.Members {
			if i > 0 {
				sb.Add("; ")
			}
			sb.Add(o)
		}
		sb.Add("]")
	} else {
		sb.Add(", value=", t.Value)
	}
	sb.Add(", alias=", t.Alias, "}")

	return sb.String()
}

// Clone makes a deep copy of the members.
// Statements rewrite RAW tokens into parameters, so a shared criteria
// must never be touched by two statements.
func (t *Token) Clone() interface{} {
	token := new(Token)
	token.Operator = t.Operator
	token.Alias = t.Alias
	token.tableAlias = t.tableAlias

	if t.Members != nil {
		others := make([]Tokener, len(t.Members))
		for i, o := range t.Members {
			if o != nil {
				others[i] = o.Clone().(Tokener)
			}
		}
		token.Members = others
	} else {
		token.Value = t.Value
	}
	return token
}

func (t *Token) Equals(o interface{}) bool {
	switch tp := o.(type) {
	case *Token:
		return t.Operator == tp.Operator &&
			t.Alias == tp.Alias && t.matchMembers(tp.Members)
	}
	return false
}

func (t *Token) matchMembers(m []Tokener) bool {
	if len(t.Members) != len(m) {
		return false
	}

	for idx, o := range t.Members {
		if !tk.Match(o, m[idx]) {
			return false
		}
	}

	return true
}

func (t *Token) HashCode() int {
	if t.hash == 0 {
		result := tk.HashType(tk.HASH_SEED, t)
		result = tk.HashString(result, t.Operator)
		result = tk.HashString(result, t.Alias)
		t.hash = result
	}

	return t.hash
}

func (t *Token) Greater(value interface{}) *Criteria {
	return Greater(t, value)
}

func (t *Token) GreaterOrMatch(value interface{}) *Criteria {
	return GreaterOrMatch(t, value)
}

func (t *Token) Lesser(value interface{}) *Criteria {
	return Lesser(t, value)
}

func (t *Token) LesserOrMatch(value interface{}) *Criteria {
	return LesserOrMatch(t, value)
}

func (t *Token) Matches(value interface{}) *Criteria {
	return Matches(t, value)
}

func (t *Token) Different(value interface{}) *Criteria {
	return Different(t, value)
}

func (t *Token) IsNull() *Criteria {
	return IsNull(t)
}
