package migrations

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	input := `
-- header comment
CREATE TABLE a (x Int32);

-- second
CREATE TABLE b (y String);
`
	stmts := splitStatements(input)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x Int32)", stmts[0])
	assert.Equal(t, "CREATE TABLE b (y String)", stmts[1])
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings(`SELECT 'a''b'; SELECT 1;`))
	assert.ErrorIs(t, validateNoSemicolonInStrings(`SELECT 'a;b'`), ErrSemicolonInString)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/negotiation")
	require.NoError(t, err)
	assert.Equal(t, "negotiation", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}

func TestLoadMigrations_Embedded(t *testing.T) {
	tests := []struct {
		name   string
		fs     fs.FS
		dir    string
		tables []string
	}{
		{"postgres", PostgresFS, "postgres", []string{"session_records"}},
		{"clickhouse", ClickhouseFS, "clickhouse", []string{"offer_traces", "strategy_aggregates"}},
		{"sqlite", SQLiteFS, "sqlite", []string{"session_records"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := loadMigrations(tt.fs, tt.dir)
			require.NoError(t, err)
			require.NotEmpty(t, files)

			var tables []string
			for _, f := range files {
				assert.NotEmpty(t, f.Statements, f.Name)
				tables = append(tables, f.Tables())
			}
			assert.Equal(t, tt.tables, tables)
		})
	}
}

func TestLoadMigrations_OrderAndValidation(t *testing.T) {
	fsys := fstest.MapFS{
		"db/002_b.sql":  {Data: []byte("CREATE TABLE IF NOT EXISTS b (y INT);")},
		"db/001_a.sql":  {Data: []byte("-- first\nCREATE TABLE a (x INT);\nCREATE INDEX ia ON a (x);")},
		"db/003_c.sql":  {Data: []byte("-- comments only\n")},
		"db/README.md":  {Data: []byte("not sql")},
		"bad/001_x.sql": {Data: []byte("INSERT INTO a VALUES ('x;y');")},
	}

	files, err := loadMigrations(fsys, "db")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "001_a.sql", files[0].Name)
	assert.Len(t, files[0].Statements, 2)
	assert.Equal(t, "a", files[0].Tables())
	assert.Equal(t, "002_b.sql", files[1].Name)
	assert.Equal(t, "b", files[1].Tables())

	_, err = loadMigrations(fsys, "bad")
	assert.ErrorIs(t, err, ErrSemicolonInString)
	assert.Contains(t, err.Error(), "001_x.sql")

	_, err = loadMigrations(fsys, "missing")
	assert.Error(t, err)
}

func TestMigration_TablesWithoutCreate(t *testing.T) {
	m := migration{Name: "004.sql", Statements: []string{"CREATE INDEX i ON session_records (seed)"}}
	assert.Equal(t, "no tables", m.Tables())
}
