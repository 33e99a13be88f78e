package common

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/quintans/faults"
)

// row is the plain view of a category, read without the tree engine
type row struct {
	Id    int64  `db:"id"`
	Name  string `db:"name"`
	Left  int64  `db:"lft"`
	Right int64  `db:"rgt"`
	Level int64  `db:"lvl"`
}

// unquoted names are folded by every supported database, the quoted aliases keep the case sqlx maps on
const scopeRows = `SELECT ID AS "id", NAME AS "name", LFT AS "lft", RGT AS "rgt", LVL AS "lvl" FROM category WHERE TREE_SCOPE = ? ORDER BY LFT`

// Checker reads the table through sqlx and verifies the labels of a scope
type Checker struct {
	db *sqlx.DB
}

func NewChecker(conn *sql.DB, driverName string) *Checker {
	return &Checker{db: sqlx.NewDb(conn, driverName)}
}

func (c *Checker) Rows(scope int64) ([]row, error) {
	var rows []row
	if err := c.db.Select(&rows, c.db.Rebind(scopeRows), scope); err != nil {
		return nil, faults.Wrap(err)
	}
	return rows, nil
}

// Names lists the names of a scope in pre-order
func (c *Checker) Names(scope int64) ([]string, error) {
	rows, err := c.Rows(scope)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	return names, nil
}

// Check verifies that the labels of the scope are a contiguous 1..2n sequence,
// that every interval nests inside its parent and that levels follow the nesting.
func (c *Checker) Check(scope int64) error {
	rows, err := c.Rows(scope)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	seen := make(map[int64]bool, 2*len(rows))
	var stack []row
	for _, r := range rows {
		if r.Left >= r.Right {
			return faults.Errorf("%s: empty interval [%d, %d]", r.Name, r.Left, r.Right)
		}
		for _, label := range []int64{r.Left, r.Right} {
			if seen[label] {
				return faults.Errorf("%s: label %d is used twice", r.Name, label)
			}
			seen[label] = true
		}

		for len(stack) > 0 && stack[len(stack)-1].Right < r.Left {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			if r.Left != 1 {
				return faults.Errorf("%s: a second root at %d", r.Name, r.Left)
			}
		} else if parent := stack[len(stack)-1]; r.Right > parent.Right {
			return faults.Errorf("%s: [%d, %d] overlaps %s [%d, %d]", r.Name, r.Left, r.Right, parent.Name, parent.Left, parent.Right)
		}
		if r.Level != int64(len(stack)) {
			return faults.Errorf("%s: level is %d but the depth is %d", r.Name, r.Level, len(stack))
		}
		stack = append(stack, r)
	}

	for label := int64(1); label <= int64(2*len(rows)); label++ {
		if !seen[label] {
			return faults.Errorf("label %d is missing", label)
		}
	}
	return nil
}
