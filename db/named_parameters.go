package db

import (
	"strings"
	"unicode"

	"github.com/quintans/faults"
	tk "github.com/quintans/toolkit"

	"github.com/quintans/nestedset/dbx"
)

// PARAMETER_SEPARATORS are the characters that end a parameter name
const PARAMETER_SEPARATORS = `"':&,;()|=+-*%/\<>^`

// RawSql is a statement ready to be sent to the driver
type RawSql struct {
	// original sql
	OriSql string
	// the converted SQL with the Database specific placeholders
	Sql string
	// the parameter names, by placeholder order
	Names []string
}

// BuildValues converts a map of named parameter values to the placeholder ordered values.
func (r *RawSql) BuildValues(paramMap map[string]interface{}) ([]interface{}, error) {
	paramArray := make([]interface{}, len(r.Names))
	var ok bool
	for i, name := range r.Names {
		paramArray[i], ok = paramMap[name]
		if !ok {
			return nil, faults.Wrap(dbx.NewPersistenceFail(dbx.FAULT_VALUES_STATEMENT,
				"No value supplied for the SQL parameter '"+name+"' for the SQL "+r.OriSql))
		}
	}
	return paramArray, nil
}

// ParseSqlStatement locates the named parameters (:name) of a statement.
// Quoted text and the Postgres "::" cast are skipped.
func ParseSqlStatement(statement string) *ParsedSql {
	parsedSql := NewParsedSql(statement)
	length := len(statement)
	for i := 0; i < length; i++ {
		c := statement[i]
		if c == '\'' || c == '"' {
			j := strings.IndexByte(statement[i+1:], c)
			if j < 0 {
				break
			}
			i = i + j + 1
			continue
		}
		if c == ':' {
			j := i + 1
			if j < length && statement[j] == ':' {
				i = i + 1
				continue
			}
			for j < length && !isParameterSeparator(rune(statement[j])) {
				j++
			}
			if (j - i) > 1 {
				parsedSql.AddNamedParameter(statement[i+1:j], i, j)
			}
			i = j - 1
		}
	}

	return parsedSql
}

func isParameterSeparator(c rune) bool {
	return unicode.IsSpace(c) || strings.ContainsRune(PARAMETER_SEPARATORS, c)
}

// SubstituteNamedParameters replaces each named parameter by the database placeholder
func SubstituteNamedParameters(parsedSql *ParsedSql, translator Translator) string {
	originalSql := parsedSql.String()
	actualSql := tk.NewStrBuffer()
	lastIndex := 0
	for i, v := range parsedSql.Names {
		indexes := parsedSql.Indexes[i]
		actualSql.Add(originalSql[lastIndex:indexes[0]])
		actualSql.Add(translator.GetPlaceholder(i, v))
		lastIndex = indexes[1]
	}
	actualSql.Add(originalSql[lastIndex:])
	return actualSql.String()
}

// ToRawSql converts SQL with named parameters to the database placeholders
func ToRawSql(sql string, translator Translator) *RawSql {
	rawSql := new(RawSql)
	rawSql.OriSql = sql
	parsedSql := ParseSqlStatement(sql)
	rawSql.Names = parsedSql.Names
	rawSql.Sql = SubstituteNamedParameters(parsedSql, translator)
	return rawSql
}
