package db

import (
	"testing"
)

func TestRebind(t *testing.T) {
	q := `UPDATE records SET payload = ? WHERE record_key = ? AND version = ?`
	if got := Rebind(DriverSQLite, q); got != q {
		t.Fatalf("sqlite rebind changed query: %s", got)
	}
	want := `UPDATE records SET payload = $1 WHERE record_key = $2 AND version = $3`
	if got := Rebind(DriverPostgres, q); got != want {
		t.Fatalf("postgres rebind = %s", got)
	}
}

func TestParseDriver(t *testing.T) {
	cases := map[string]Driver{"": DriverSQLite, "SQLite": DriverSQLite, "postgres": DriverPostgres, "pgx": DriverPostgres}
	for in, want := range cases {
		got, err := ParseDriver(in)
		if err != nil || got != want {
			t.Fatalf("ParseDriver(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDriver("mysql"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestOpen_AppliesAndRollsBackMigrations(t *testing.T) {
	d, err := Open(DriverSQLite, "file:dbmigrations?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if _, err := d.Exec(`INSERT INTO records(record_key, payload, version) VALUES('users', '[]', 1)`); err != nil {
		t.Fatalf("records table missing: %v", err)
	}
	if err := RollbackLast(d, DriverSQLite); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if _, err := d.Exec(`SELECT 1 FROM records`); err == nil {
		t.Fatalf("expected records table to be dropped")
	}
	var n int
	if err := d.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil || n != 0 {
		t.Fatalf("schema_migrations count = %d err=%v", n, err)
	}
}

func TestOpen_PostgresRequiresURL(t *testing.T) {
	if _, err := Open(DriverPostgres, ""); err == nil {
		t.Fatalf("expected error without a database url")
	}
}
