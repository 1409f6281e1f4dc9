package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"furamora/internal/db"
)

// RecordStore implements RecordStoreI on the `records` table (SQLite or Postgres).
type RecordStore struct {
	db     *sql.DB
	driver db.Driver
}

func NewRecordStore(d *sql.DB, driver db.Driver) *RecordStore {
	if driver == "" {
		driver = db.DriverSQLite
	}
	return &RecordStore{db: d, driver: driver}
}

func (r *RecordStore) q(query string) string { return db.Rebind(r.driver, query) }

func (r *RecordStore) Get(ctx context.Context, key string) ([]byte, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		payload string
		version int64
	)
	err := r.db.QueryRowContext(ctx, r.q(`SELECT payload, version FROM records WHERE record_key = ?`), key).Scan(&payload, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	return []byte(payload), version, nil
}

func (r *RecordStore) Put(ctx context.Context, key string, payload []byte, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		res sql.Result
		err error
	)
	switch {
	case expectedVersion == AnyVersion:
		_, err = r.db.ExecContext(ctx, r.q(`INSERT INTO records (record_key, payload, version) VALUES (?, ?, 1)
ON CONFLICT (record_key) DO UPDATE SET payload = excluded.payload, version = records.version + 1`), key, string(payload))
		return err
	case expectedVersion == 0:
		res, err = r.db.ExecContext(ctx, r.q(`INSERT INTO records (record_key, payload, version) VALUES (?, ?, 1)
ON CONFLICT (record_key) DO NOTHING`), key, string(payload))
	default:
		res, err = r.db.ExecContext(ctx, r.q(`UPDATE records SET payload = ?, version = version + 1 WHERE record_key = ? AND version = ?`),
			string(payload), key, expectedVersion)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *RecordStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, r.q(`DELETE FROM records WHERE record_key = ?`), key)
	return err
}

func (r *RecordStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}
