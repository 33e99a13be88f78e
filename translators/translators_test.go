package translators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quintans/nestedset/db"
)

var (
	CATEGORY       = db.TABLE("CATEGORY")
	CATEGORY_C_ID  = CATEGORY.KEY("ID")
	CATEGORY_C_SCP = CATEGORY.COLUMN("TREE_SCOPE")
	CATEGORY_C_LFT = CATEGORY.COLUMN("LFT")
	CATEGORY_C_RGT = CATEGORY.COLUMN("RGT")
	CATEGORY_C_NAM = CATEGORY.COLUMN("NAME")
)

func store(translator db.Translator) db.IDb {
	return db.NewDb(context.Background(), nil, translator)
}

func TestQuerySQL(t *testing.T) {
	tx := NewSQLiteTranslator()
	q := store(tx).Query(CATEGORY).
		Column(CATEGORY_C_ID, CATEGORY_C_NAM).
		Where(
			CATEGORY_C_LFT.Greater(3),
			CATEGORY_C_SCP.Matches(1),
		).
		Order(CATEGORY_C_LFT).
		Limit(2)

	sql, err := tx.GetSqlForQuery(q)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT t0.ID AS t0_Id, t0.NAME AS t0_Name FROM CATEGORY t0 WHERE t0.LFT > :t0_R1 AND t0.TREE_SCOPE = :t0_R2 ORDER BY t0.LFT ASC LIMIT :LIMIT_PARAM",
		sql)
	assert.Equal(t, int64(2), q.GetParameters()[db.LIMIT_PARAM])

	raw := db.ToRawSql(sql, tx)
	assert.Equal(t, []string{"t0_R1", "t0_R2", "LIMIT_PARAM"}, raw.Names)
	values, err := raw.BuildValues(q.GetParameters())
	require.NoError(t, err)
	assert.Equal(t, []interface{}{3, 1, int64(2)}, values)
}

func TestQueryDescAndCount(t *testing.T) {
	tx := NewSQLiteTranslator()
	q := store(tx).Query(CATEGORY).
		CountAll().
		Where(db.Range(CATEGORY_C_LFT, 2, 9)).
		Order(CATEGORY_C_RGT).Desc()

	sql, err := tx.GetSqlForQuery(q)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COUNT(*) AS COL_1 FROM CATEGORY t0 WHERE t0.LFT >= :t0_R1 AND t0.LFT <= :t0_R2 ORDER BY t0.RGT DESC",
		sql)
}

func TestNegatedCriteria(t *testing.T) {
	tx := NewSQLiteTranslator()
	q := store(tx).Query(CATEGORY).
		Column(CATEGORY_C_ID).
		Where(
			CATEGORY_C_ID.In(1, 2).Not(),
			CATEGORY_C_LFT.Matches(1).Not(),
			db.Or(CATEGORY_C_NAM.IsNull(), CATEGORY_C_RGT.Lesser(10)),
		)

	sql, err := tx.GetSqlForQuery(q)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT t0.ID AS t0_Id FROM CATEGORY t0 WHERE t0.ID NOT IN (:t0_R1, :t0_R2) AND NOT (t0.LFT = :t0_R3) AND (t0.NAME IS NULL OR t0.RGT < :t0_R4)",
		sql)
}

func TestShiftUpdateSQL(t *testing.T) {
	cases := []struct {
		name       string
		translator db.Translator
		sql        string
		raw        string
	}{
		{
			name:       "sqlite",
			translator: NewSQLiteTranslator(),
			sql:        "UPDATE CATEGORY AS t0 SET LFT = t0.LFT + :t0_R1 WHERE t0.LFT >= :t0_R2 AND t0.TREE_SCOPE = :t0_R3",
			raw:        "UPDATE CATEGORY AS t0 SET LFT = t0.LFT + ? WHERE t0.LFT >= ? AND t0.TREE_SCOPE = ?",
		},
		{
			name:       "postgresql",
			translator: NewPostgreSQLTranslator(),
			sql:        "UPDATE category AS t0 SET lft = t0.lft + :t0_R1 WHERE t0.lft >= :t0_R2 AND t0.tree_scope = :t0_R3",
			raw:        "UPDATE category AS t0 SET lft = t0.lft + $1 WHERE t0.lft >= $2 AND t0.tree_scope = $3",
		},
		{
			name:       "mysql",
			translator: NewMySQL5Translator(),
			sql:        "UPDATE `category` t0 SET t0.`lft` = t0.`lft` + :t0_R1 WHERE t0.`lft` >= :t0_R2 AND t0.`tree_scope` = :t0_R3",
			raw:        "UPDATE `category` t0 SET t0.`lft` = t0.`lft` + ? WHERE t0.`lft` >= ? AND t0.`tree_scope` = ?",
		},
		{
			name:       "firebird",
			translator: NewFirebirdSQLTranslator(),
			sql:        `UPDATE "CATEGORY" t0 SET t0."LFT" = t0."LFT" + :t0_R1 WHERE t0."LFT" >= :t0_R2 AND t0."TREE_SCOPE" = :t0_R3`,
			raw:        `UPDATE "CATEGORY" t0 SET t0."LFT" = t0."LFT" + ? WHERE t0."LFT" >= ? AND t0."TREE_SCOPE" = ?`,
		},
		{
			name:       "oracle",
			translator: NewOracleTranslator(),
			sql:        `UPDATE "CATEGORY" t0 SET t0."LFT" = t0."LFT" + :t0_R1 WHERE t0."LFT" >= :t0_R2 AND t0."TREE_SCOPE" = :t0_R3`,
			raw:        `UPDATE "CATEGORY" t0 SET t0."LFT" = t0."LFT" + :1 WHERE t0."LFT" >= :2 AND t0."TREE_SCOPE" = :3`,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			u := store(c.translator).Update(CATEGORY).
				Set(CATEGORY_C_LFT, db.Add(db.Col(CATEGORY_C_LFT), 2)).
				Where(CATEGORY_C_LFT.GreaterOrMatch(5), CATEGORY_C_SCP.Matches(1))

			sql, err := c.translator.GetSqlForUpdate(u)
			require.NoError(t, err)
			assert.Equal(t, c.sql, sql)
			assert.Equal(t, c.raw, db.ToRawSql(sql, c.translator).Sql)
		})
	}
}

func TestDeleteSQL(t *testing.T) {
	cases := []struct {
		name       string
		translator db.Translator
		sql        string
	}{
		{"sqlite", NewSQLiteTranslator(), "DELETE FROM CATEGORY AS t0 WHERE t0.LFT > :t0_R1"},
		{"postgresql", NewPostgreSQLTranslator(), "DELETE FROM category AS t0 WHERE t0.lft > :t0_R1"},
		{"mysql", NewMySQL5Translator(), "DELETE FROM t0 USING `category` AS t0 WHERE t0.`lft` > :t0_R1"},
		{"firebird", NewFirebirdSQLTranslator(), `DELETE FROM "CATEGORY" t0 WHERE t0."LFT" > :t0_R1`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := store(c.translator).Delete(CATEGORY).Where(CATEGORY_C_LFT.Greater(4))
			sql, err := c.translator.GetSqlForDelete(d)
			require.NoError(t, err)
			assert.Equal(t, c.sql, sql)
		})
	}
}

func TestInsertSQL(t *testing.T) {
	tx := NewSQLiteTranslator()
	i := store(tx).Insert(CATEGORY).
		Columns(CATEGORY_C_ID, CATEGORY_C_LFT, CATEGORY_C_RGT).
		Values(nil, 1, 2)

	sql, err := tx.GetSqlForInsert(i)
	require.NoError(t, err)
	// the null key is left to the database
	assert.Equal(t, "INSERT INTO CATEGORY(LFT, RGT) VALUES(:t0_R2, :t0_R3)", sql)
	assert.False(t, i.HasKeyValue)

	pg := NewPostgreSQLTranslator()
	i = store(pg).Insert(CATEGORY).
		Set(CATEGORY_C_LFT, 1).
		Set(CATEGORY_C_RGT, 2)
	sql, err = pg.GetSqlForInsert(i)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO category(lft, rgt) VALUES(:t0_R1, :t0_R2) RETURNING id", sql)
	assert.Equal(t, "INSERT INTO category(lft, rgt) VALUES($1, $2) RETURNING id", db.ToRawSql(sql, pg).Sql)

	i = store(pg).Insert(CATEGORY).
		Set(CATEGORY_C_ID, 7).
		Set(CATEGORY_C_LFT, 1)
	sql, err = pg.GetSqlForInsert(i)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO category(id, lft) VALUES(:t0_R1, :t0_R2)", sql)
}

func TestPagination(t *testing.T) {
	fb := NewFirebirdSQLTranslator()
	q := store(fb).Query(CATEGORY).Column(CATEGORY_C_ID).Skip(2).Limit(3)
	sql, err := fb.GetSqlForQuery(q)
	require.NoError(t, err)
	assert.Equal(t, `SELECT t0."ID" AS t0_Id FROM "CATEGORY" t0 ROWS :OFFSET_PARAM TO :LIMIT_PARAM`, sql)
	assert.Equal(t, int64(3), q.GetParameters()[db.OFFSET_PARAM])
	assert.Equal(t, int64(5), q.GetParameters()[db.LIMIT_PARAM])

	my := NewMySQL5Translator()
	q = store(my).Query(CATEGORY).Column(CATEGORY_C_ID).Limit(1)
	sql, err = my.GetSqlForQuery(q)
	require.NoError(t, err)
	assert.Equal(t, "SELECT t0.`id` AS t0_Id FROM `category` t0 LIMIT :OFFSET_PARAM, :LIMIT_PARAM", sql)

	ora := NewOracleTranslator()
	q = store(ora).Query(CATEGORY).Column(CATEGORY_C_ID).Limit(1)
	sql, err = ora.GetSqlForQuery(q)
	require.NoError(t, err)
	assert.Equal(t, `select * from ( SELECT t0."ID" AS t0_Id FROM "CATEGORY" t0 ) where rownum <= :LIMIT_PARAM`, sql)
}

func TestUnknownToken(t *testing.T) {
	tx := NewSQLiteTranslator()
	_, err := tx.Translate(db.QUERY, db.NewToken("SOUNDEX", CATEGORY_C_NAM))
	require.Error(t, err)
}

func TestAutoNumberQueries(t *testing.T) {
	assert.Equal(t, "select last_insert_rowid()", NewSQLiteTranslator().GetAutoNumberQuery(CATEGORY_C_ID))
	assert.Equal(t, "select LAST_INSERT_ID()", NewMySQL5Translator().GetAutoNumberQuery(CATEGORY_C_ID))
	assert.Equal(t, "select GEN_ID(CATEGORY_GEN, 1) from RDB$DATABASE", NewFirebirdSQLTranslator().GetAutoNumberQuery(CATEGORY_C_ID))
	assert.Equal(t, "select CATEGORY_SEQ.nextval from dual", NewOracleTranslator().GetAutoNumberQuery(CATEGORY_C_ID))
	assert.Equal(t, db.AUTOKEY_RETURNING, NewPostgreSQLTranslator().GetAutoKeyStrategy())
}
