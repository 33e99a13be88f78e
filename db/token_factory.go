package db

func Col(column *Column) *ColumnHolder {
	return NewColumnHolder(column)
}

// CRITERIA ===========================

func criteriasToInterface(operations []*Criteria) []interface{} {
	toks := make([]interface{}, 0, len(operations))
	for _, v := range operations {
		if v != nil {
			toks = append(toks, v)
		}
	}
	return toks
}

func Or(operations ...*Criteria) *Criteria {
	toks := criteriasToInterface(operations)
	if len(toks) == 1 {
		return toks[0].(*Criteria)
	}
	return NewCriteria(TOKEN_OR, toks...)
}

// And joins the criterias. Nil criterias are ignored.
func And(operations ...*Criteria) *Criteria {
	toks := criteriasToInterface(operations)
	if len(toks) == 1 {
		return toks[0].(*Criteria)
	}
	return NewCriteria(TOKEN_AND, toks...)
}

func Greater(left interface{}, right interface{}) *Criteria {
	return NewCriteria(TOKEN_GT, left, right)
}

func GreaterOrMatch(left interface{}, right interface{}) *Criteria {
	return NewCriteria(TOKEN_GTEQ, left, right)
}

func Lesser(left interface{}, right interface{}) *Criteria {
	return NewCriteria(TOKEN_LT, left, right)
}

func LesserOrMatch(left interface{}, right interface{}) *Criteria {
	return NewCriteria(TOKEN_LTEQ, left, right)
}

func Matches(left interface{}, right interface{}) *Criteria {
	return NewCriteria(TOKEN_EQ, left, right)
}

func Different(left, right interface{}) *Criteria {
	return NewCriteria(TOKEN_NEQ, left, right)
}

// Range is inclusive on both ends. A nil end is open.
func Range(receiver, bottom, top interface{}) *Criteria {
	if bottom != nil && top != nil {
		return NewCriteria(TOKEN_RANGE, receiver, bottom, top)
	} else if bottom != nil {
		return GreaterOrMatch(receiver, bottom)
	} else if top != nil {
		return LesserOrMatch(receiver, top)
	}

	panic("Invalid Range Tokenization")
}

func IsNull(token interface{}) *Criteria {
	return NewCriteria(TOKEN_ISNULL, token)
}

func In(column interface{}, values ...interface{}) *Criteria {
	var vals []interface{}
	vals = append(vals, column)
	vals = append(vals, values...)
	return NewCriteria(TOKEN_IN, vals...)
}

func Not(token interface{}) *Criteria {
	return NewCriteria(TOKEN_NOT, token)
}

// FUNCTION =======================

func Raw(o interface{}) Tokener {
	return NewEndToken(TOKEN_RAW, o)
}

func Max(token interface{}) Tokener {
	return NewToken(TOKEN_MAX, token)
}

// Count counts the rows. Pass nil to use COUNT(*).
func Count(column *Column) Tokener {
	if column == nil {
		return NewEndToken(TOKEN_COUNT, nil)
	}
	return NewToken(TOKEN_COUNT_COLUMN, NewColumnHolder(column))
}

// the args can be Columns, Tokens, nil or primitives
func Add(values ...interface{}) Tokener {
	return NewToken(TOKEN_ADD, values...)
}
