package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	stdfs "io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"
)

// Driver names the SQL backend holding the record store.
type Driver string

const (
	DriverSQLite   Driver = "sqlite3"
	DriverPostgres Driver = "pgx"
)

// ParseDriver maps configuration values ("sqlite", "postgres", ...) onto a Driver.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unknown store driver %q", s)
}

// Rebind rewrites `?` placeholders into the form the driver expects.
// Postgres uses $1..$n; SQLite accepts `?` as written.
func Rebind(d Driver, query string) string {
	if d != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Open opens (or creates) the record store database and applies pending migrations.
// Migrations are versioned .sql files under internal/db/migrations following the pattern:
//
//	0001_name.up.sql / 0001_name.down.sql
//
// Only new migrations are applied. Use RollbackLast to revert the last applied migration.
func Open(driver Driver, dsn string) (*sql.DB, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	if dsn == "" {
		if driver != DriverSQLite {
			return nil, errors.New("database url is required for postgres")
		}
		dsn = "furamora.db"
	}
	d, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, err
	}
	if err := d.Ping(); err != nil {
		_ = d.Close()
		return nil, err
	}
	if driver == DriverSQLite {
		// journal_mode may not be supported in some contexts (e.g., in-memory). Ignore errors.
		_, _ = d.Exec(`PRAGMA journal_mode=WAL`)
		if _, err := d.Exec(`PRAGMA busy_timeout=5000`); err != nil {
			_ = d.Close()
			return nil, err
		}
	}
	if err := applyMigrations(d, driver); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// RollbackLast reverts the most recently applied migration using its down script.
func RollbackLast(d *sql.DB, driver Driver) error {
	if d == nil {
		return errors.New("nil db")
	}
	if err := ensureMigrationsTable(d, driver); err != nil {
		return err
	}
	var version int
	err := d.QueryRow(`SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	migs, err := loadMigrations()
	if err != nil {
		return err
	}
	for _, m := range migs {
		if m.version != version {
			continue
		}
		if m.down == "" {
			break
		}
		return m.run(d, m.down, Rebind(driver, `DELETE FROM schema_migrations WHERE version = ?`))
	}
	return fmt.Errorf("no down migration for version %04d", version)
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

var migFileRe = regexp.MustCompile(`^([0-9]{4})_(.+)\.(up|down)\.sql$`)

// migration pairs the up and down scripts sharing a version prefix.
type migration struct {
	version int
	name    string
	up      string
	down    string
}

// run executes script and the bookkeeping statement in one transaction.
func (m migration) run(d *sql.DB, script, bookkeeping string) error {
	body, err := migrationsFS.ReadFile(script)
	if err != nil {
		return err
	}
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(string(body)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %04d (%s): %w", m.version, m.name, err)
	}
	if _, err := tx.Exec(bookkeeping, m.version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// loadMigrations returns the embedded migrations ordered by version.
func loadMigrations() ([]migration, error) {
	list, err := stdfs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	byVersion := map[int]*migration{}
	for _, de := range list {
		match := migFileRe.FindStringSubmatch(de.Name())
		if de.IsDir() || match == nil {
			continue
		}
		ver, _ := strconv.Atoi(match[1])
		m, ok := byVersion[ver]
		if !ok {
			m = &migration{version: ver, name: match[2]}
			byVersion[ver] = m
		}
		if match[3] == "up" {
			m.up = "migrations/" + de.Name()
		} else {
			m.down = "migrations/" + de.Name()
		}
	}
	out := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func ensureMigrationsTable(d *sql.DB, driver Driver) error {
	ddl := `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
	)`
	if driver == DriverPostgres {
		ddl = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	}
	_, err := d.Exec(ddl)
	return err
}

func applyMigrations(d *sql.DB, driver Driver) error {
	migs, err := loadMigrations()
	if err != nil || len(migs) == 0 {
		return err
	}
	if err := ensureMigrationsTable(d, driver); err != nil {
		return err
	}
	applied := map[int]bool{}
	rows, err := d.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	if err := rows.Close(); err != nil {
		return err
	}
	insert := Rebind(driver, `INSERT INTO schema_migrations(version) VALUES(?)`)
	for _, m := range migs {
		if applied[m.version] {
			continue
		}
		if m.up == "" {
			return fmt.Errorf("missing up migration for version %04d", m.version)
		}
		if err := m.run(d, m.up, insert); err != nil {
			return err
		}
	}
	return nil
}
