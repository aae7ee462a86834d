package catalog

import (
	"strings"
	"testing"
)

func TestRebind(t *testing.T) {
	query := "UPDATE movies SET poster_ref = ? WHERE movie_key = ? AND poster_ref = ''"
	if got := sqliteDialect.rebind(query); got != query {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
	want := "UPDATE movies SET poster_ref = $1 WHERE movie_key = $2 AND poster_ref = ''"
	if got := postgresDialect.rebind(query); got != want {
		t.Fatalf("postgres rebind = %q, want %q", got, want)
	}
}

func TestSchemaStatementsSplit(t *testing.T) {
	stmts := schemaStatements()
	if len(stmts) != 5 {
		t.Fatalf("expected 5 schema statements, got %d", len(stmts))
	}
	for _, stmt := range stmts {
		if strings.HasSuffix(stmt, ";") || stmt == "" {
			t.Fatalf("malformed statement %q", stmt)
		}
	}
}

func TestSQLiteDSN(t *testing.T) {
	dsn := sqliteDSN("/tmp/reel.db")
	for _, part := range []string{"file:/tmp/reel.db?", "_txlock=immediate", "busy_timeout%285000%29"} {
		if !strings.Contains(dsn, part) {
			t.Fatalf("dsn %q missing %q", dsn, part)
		}
	}
}
