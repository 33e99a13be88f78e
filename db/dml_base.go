package db

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	tk "github.com/quintans/toolkit"
	"github.com/quintans/toolkit/log"

	"github.com/quintans/nestedset/dbx"
)

var lgr = log.LoggerFor("github.com/quintans/nestedset/db")

const PREFIX = "t"

type DmlBase struct {
	db IDb

	table      *Table
	tableAlias string
	criteria   *Criteria
	parameters map[string]interface{}
	rawIndex   int

	rawSQL *RawSql
	dba    *dbx.SimpleDBA

	err error
}

func (d *DmlBase) init(DB IDb, table *Table) {
	d.db = DB
	d.table = table
	d.tableAlias = PREFIX + "0"
	d.parameters = make(map[string]interface{})
	d.dba = dbx.NewSimpleDBA(DB.GetConnection())
	if table == nil {
		d.err = fmt.Errorf("nil table")
	} else {
		d.err = table.Err()
	}
}

func (d *DmlBase) GetTable() *Table {
	return d.table
}

func (d *DmlBase) GetTableAlias() string {
	return d.tableAlias
}

func (d *DmlBase) alias(a string) {
	if a != "" {
		d.tableAlias = a
		d.rawSQL = nil
	}
}

func (d *DmlBase) SetParameter(key string, parameter interface{}) {
	d.parameters[key] = parameter
}

func (d *DmlBase) GetParameters() map[string]interface{} {
	return d.parameters
}

func (d *DmlBase) GetCriteria() *Criteria {
	return d.criteria
}

// Err returns the error collected while building the statement
func (d *DmlBase) Err() error {
	return d.err
}

func (d *DmlBase) where(restrictions []*Criteria) {
	if len(restrictions) == 0 {
		return
	}
	restriction := And(restrictions...)
	if restriction == nil {
		return
	}

	token := restriction.Clone().(*Criteria)
	d.replaceRaw(token)
	token.SetTableAlias(d.tableAlias)

	d.criteria = token
	d.rawSQL = nil
}

// replaceRaw replaces RAW tokens with PARAM tokens, moving the value to the parameters
func (d *DmlBase) replaceRaw(token Tokener) {
	if token == nil {
		return
	}
	if token.GetOperator() == TOKEN_RAW {
		d.rawIndex++
		parameter := d.tableAlias + "_R" + strconv.Itoa(d.rawIndex)
		d.SetParameter(parameter, token.GetValue())
		token.SetOperator(TOKEN_PARAM)
		token.SetValue(parameter)
		return
	}
	for _, t := range token.GetMembers() {
		d.replaceRaw(t)
	}
}

func (d *DmlBase) dumpParameters(params map[string]interface{}) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	str := tk.NewStrBuffer()
	for _, name := range names {
		v := params[name]
		if strings.HasSuffix(name, "$") {
			// secret
			str.Add(fmt.Sprintf("[%s=****]", name))
		} else if v != nil {
			typ := reflect.ValueOf(v)
			k := typ.Kind()
			if k == reflect.Slice || k == reflect.Array {
				str.Add(fmt.Sprintf("[%s=<BLOB>]", name))
			} else if k == reflect.Ptr {
				if typ.IsNil() {
					str.Add(fmt.Sprintf("[%s=NULL]", name))
				} else {
					str.Add(fmt.Sprintf("[%s=(*)%v]", name, typ.Elem().Interface()))
				}
			} else {
				str.Add(fmt.Sprintf("[%s=%v]", name, typ.Interface()))
			}
		} else {
			str.Add(fmt.Sprintf("[%s=NULL]", name))
		}
	}

	return str.String()
}

func (d *DmlBase) debugSQL(sql string, depth int) {
	if lgr.IsActive(log.DEBUG) {
		dump := d.dumpParameters(d.parameters)
		lgr.CallerAt(depth+1).Debugf("%s", func() string {
			return fmt.Sprintf("\n\t%T SQL: %s\n\tparameters: %s",
				d, sql, dump)
		})
	}
}

func (d *DmlBase) debugTime(then time.Time, depth int) {
	if lgr.IsActive(log.DEBUG) {
		lgr.CallerAt(depth+1).Debugf("executed in: %s", time.Since(then))
	}
}

// derefValues dereferences pointers so that every driver sees plain values
func derefValues(params []interface{}) []interface{} {
	for k, v := range params {
		if v == nil {
			continue
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr {
			if rv.IsNil() {
				params[k] = nil
			} else if _, ok := v.(driver.Valuer); !ok {
				params[k] = rv.Elem().Interface()
			}
		}
	}
	return params
}
