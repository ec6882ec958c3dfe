package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kowaiquest/internal/config"
)

func TestDialects(t *testing.T) {
	tests := []struct {
		name          string
		dialect       Dialect
		driver        string
		subdir        string
		lockingSuffix string
		upsertKeyword string
	}{
		{"SQLite", NewSQLiteDialect(), "sqlite3", "sqlite", "", "ON CONFLICT"},
		{"PostgreSQL", NewPostgresDialect(), "postgres", "postgres", " FOR UPDATE", "ON CONFLICT"},
		{"MySQL", NewMySQLDialect(), "mysql", "mysql", " FOR UPDATE", "ON DUPLICATE KEY UPDATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.driver, tt.dialect.DriverName())
			assert.Equal(t, tt.subdir, tt.dialect.MigrationsSubdir())
			assert.Equal(t, tt.lockingSuffix, tt.dialect.LockingReadSuffix())
			assert.Contains(t, tt.dialect.UpsertDocumentQuery(), tt.upsertKeyword)
			assert.Contains(t, tt.dialect.CreateMigrationsTableQuery(), "CREATE TABLE IF NOT EXISTS migrations")
		})
	}
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "/tmp/kq.db", NewSQLiteDialect().DSN(DialectConfig{Path: "/tmp/kq.db", URL: "ignored"}))
	assert.Equal(t, "postgres://db/kq", NewPostgresDialect().DSN(DialectConfig{URL: "postgres://db/kq"}))
	assert.Equal(t, "user@tcp(db)/kq", NewMySQLDialect().DSN(DialectConfig{URL: "user@tcp(db)/kq"}))
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT data FROM documents WHERE doc_id = ?",
			expected: "SELECT data FROM documents WHERE doc_id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT data FROM documents WHERE doc_id = ?",
			expected: "SELECT data FROM documents WHERE doc_id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "DELETE FROM documents WHERE collection_path = ? AND doc_id = ?",
			expected: "DELETE FROM documents WHERE collection_path = $1 AND doc_id = $2",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE documents SET data = ? WHERE doc_id = ?",
			expected: "UPDATE documents SET data = ? WHERE doc_id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.dialect.RewriteQuery(tt.query))
		})
	}
}

func TestPostgresUpsertPlaceholders(t *testing.T) {
	rewritten := NewPostgresDialect().RewriteQuery(NewPostgresDialect().UpsertDocumentQuery())
	assert.Contains(t, rewritten, "VALUES ($1, $2, $3, $4, $5)")
	assert.NotContains(t, rewritten, "?")
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		dbType  string
		driver  string
		wantErr bool
	}{
		{"", "sqlite3", false},
		{"sqlite", "sqlite3", false},
		{"PostgreSQL", "postgres", false},
		{"mysql", "mysql", false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			dialect, _, err := DialectFor(&config.Config{DatabaseType: tt.dbType})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.driver, dialect.DriverName())
		})
	}
}

func TestSplitStatements(t *testing.T) {
	content := `-- header comment
CREATE TABLE a (id INTEGER);

CREATE INDEX idx_a ON a(id);
   -- trailing comment
`
	stmts := SplitStatements(content)
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE a"))
	assert.Equal(t, "CREATE INDEX idx_a ON a(id)", stmts[1])
	assert.Empty(t, SplitStatements("-- nothing here\n\n"))
}
