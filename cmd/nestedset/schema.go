package main

import (
	"fmt"
	"strings"

	"github.com/quintans/faults"

	"github.com/quintans/nestedset/db"
	"github.com/quintans/nestedset/translators"
)

// translatorFor picks the dialect of a database/sql driver name
func translatorFor(driver string) (db.Translator, error) {
	switch driver {
	case "sqlite":
		return translators.NewSQLiteTranslator(), nil
	case "mysql":
		return translators.NewMySQL5Translator(), nil
	case "postgres":
		return translators.NewPostgreSQLTranslator(), nil
	case "firebirdsql":
		return translators.NewFirebirdSQLTranslator(), nil
	default:
		return nil, faults.Errorf("unsupported driver %q", driver)
	}
}

// schema returns the statements creating the tree table and the index allowing one root per scope
func schema(cfg *Config) ([]string, error) {
	table := cfg.Table()
	id, scope, left, right, level, name := cfg.IDColumn(), cfg.ScopeColumn(), cfg.LeftColumn(), cfg.RightColumn(), cfg.LevelColumn(), cfg.NameColumn()

	switch cfg.Driver() {
	case "sqlite":
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s INTEGER PRIMARY KEY AUTOINCREMENT,
	%s INTEGER NOT NULL DEFAULT 0,
	%s INTEGER NOT NULL,
	%s INTEGER NOT NULL,
	%s INTEGER NOT NULL,
	%s VARCHAR(100) NOT NULL
)`, table, id, scope, left, right, level, name),
			fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s_ROOT ON %s(%s) WHERE %s = 1", table, table, scope, left),
		}, nil
	case "postgres":
		l := strings.ToLower
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s BIGSERIAL PRIMARY KEY,
	%s BIGINT NOT NULL DEFAULT 0,
	%s BIGINT NOT NULL,
	%s BIGINT NOT NULL,
	%s BIGINT NOT NULL,
	%s VARCHAR(100) NOT NULL
)`, l(table), l(id), l(scope), l(left), l(right), l(level), l(name)),
			fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s_root ON %s(%s) WHERE %s = 1", l(table), l(table), l(scope), l(left)),
		}, nil
	case "mysql":
		l := strings.ToLower
		// unique keys ignore NULL, so only root rows take part
		return []string{
			fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (\n"+
				"\t`%s` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,\n"+
				"\t`%s` BIGINT NOT NULL DEFAULT 0,\n"+
				"\t`%s` BIGINT NOT NULL,\n"+
				"\t`%s` BIGINT NOT NULL,\n"+
				"\t`%s` BIGINT NOT NULL,\n"+
				"\t`%s` VARCHAR(100) NOT NULL,\n"+
				"\t`root_scope` BIGINT AS (CASE WHEN `%s` = 1 THEN `%s` END) STORED,\n"+
				"\tUNIQUE KEY `%s_root` (`root_scope`)\n"+
				") ENGINE=InnoDB",
				l(table), l(id), l(scope), l(left), l(right), l(level), l(name), l(left), l(scope), l(table)),
		}, nil
	case "firebirdsql":
		u := strings.ToUpper
		return []string{
			fmt.Sprintf(`CREATE TABLE %s (
	%s BIGINT NOT NULL PRIMARY KEY,
	%s BIGINT DEFAULT 0 NOT NULL,
	%s BIGINT NOT NULL,
	%s BIGINT NOT NULL,
	%s BIGINT NOT NULL,
	%s VARCHAR(100) NOT NULL
)`, u(table), u(id), u(scope), u(left), u(right), u(level), u(name)),
			fmt.Sprintf("CREATE GENERATOR %s_GEN", u(table)),
			fmt.Sprintf("CREATE UNIQUE INDEX %s_ROOT ON %s COMPUTED BY (CASE WHEN %s = 1 THEN %s END)", u(table), u(table), u(left), u(scope)),
		}, nil
	default:
		return nil, faults.Errorf("unsupported driver %q", cfg.Driver())
	}
}
