package db

import (
	"github.com/quintans/faults"
	coll "github.com/quintans/toolkit/collections"
)

type DmlCore struct {
	DmlBase

	vals coll.Map
	cols []*Column
}

// set defines a parameter for the column.
// The value can be a raw value or a token like
// Add(Col(LFT), 2)
func (d *DmlCore) set(col *Column, value interface{}) error {
	token := tokenizeOne(value)
	d.replaceRaw(token)
	token.SetTableAlias(d.tableAlias)
	// if the column was not yet defined, the sql changed
	changed, err := d.defineParameter(col, token)
	if err != nil {
		return err
	}
	if changed {
		d.rawSQL = nil
	}
	return nil
}

// defineParameter stores the value for the column and returns true if the column is new to the statement
func (d *DmlCore) defineParameter(col *Column, value Tokener) (bool, error) {
	if !d.table.Owns(col) {
		return false, faults.Errorf("%s does not belong to table %s", col, d.table)
	}

	if d.vals == nil {
		d.vals = coll.NewLinkedHashMap()
	}

	old := d.vals.Put(col, value)
	if old == nil {
		return true, nil
	}

	tok := old.(Tokener)
	if value.GetOperator() == TOKEN_PARAM && tok.GetOperator() == TOKEN_PARAM {
		// one param replaces another: keep the old name so the sql stays the same
		oldKey := tok.GetValue().(string)
		key := value.GetValue().(string)
		if oldKey != key {
			value.SetValue(oldKey)
			d.parameters[oldKey] = d.parameters[key]
			delete(d.parameters, key)
		}
		return false, nil
	}
	if tok.GetOperator() == TOKEN_PARAM {
		delete(d.parameters, tok.GetValue().(string))
	}
	return true, nil
}

func (d *DmlCore) GetValues() coll.Map {
	return d.vals
}
