package dbx

import tk "github.com/quintans/toolkit"

const (
	FAULT_PARSE_STATEMENT  = "sql-parse"
	FAULT_VALUES_STATEMENT = "sql-values"
	FAULT_NO_ROWS_AFFECTED = "no-rows-affected"
)

var _ error = (*PersistenceFail)(nil)

type PersistenceFail struct {
	*tk.Fail
}

func NewPersistenceFail(code string, message string) *PersistenceFail {
	fail := new(PersistenceFail)
	fail.Fail = new(tk.Fail)
	fail.Fail.Code = code
	fail.Fail.Message = message
	return fail
}

// NoRowsAffected is returned when a statement that must touch a row did not.
func NoRowsAffected(message string) *PersistenceFail {
	return NewPersistenceFail(FAULT_NO_ROWS_AFFECTED, message)
}
