package firebird

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/nakagami/firebirdsql"
	"github.com/quintans/toolkit/log"

	. "github.com/quintans/nestedset/db"
	"github.com/quintans/nestedset/test/common"
	trx "github.com/quintans/nestedset/translators"
)

var logger = log.LoggerFor("github.com/quintans/nestedset/test")

const dsn = "nestedset:secret@localhost:%s//firebird/data/nestedset.fdb"

func TestFirebirdSQL(t *testing.T) {
	logger.Debugf("******* Using FirebirdSQL *******")

	ctx, server, port, err := common.Container(
		"jacobalberty/firebird:3.0.4",
		"3050/tcp",
		map[string]string{
			"FIREBIRD_USER":     "nestedset",
			"FIREBIRD_PASSWORD": "secret",
			"FIREBIRD_DATABASE": "nestedset.fdb",
		},
		"firebirdsql",
		fmt.Sprintf(dsn, "<port>"),
		1,
	)
	if err != nil {
		t.Fatal(err)
	}
	defer server.Terminate(ctx)

	tm, theDB, err := InitFirebirdSQL(port.Port())
	if err != nil {
		t.Fatal(err)
	}
	defer theDB.Close()

	tester := common.Tester{DbName: common.Firebird, DriverName: "firebirdsql", Conn: theDB}
	tester.RunAll(tm, t)
}

func InitFirebirdSQL(port string) (ITransactionManager, *sql.DB, error) {
	return common.InitDB(
		"firebirdsql",
		fmt.Sprintf(dsn, port),
		trx.NewFirebirdSQLTranslator(),
		"tables_firebirdsql.sql",
	)
}
