package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"google.golang.org/grpc/metadata"

	"furamora/internal/db"
	"furamora/repository"
)

var dbSeq atomic.Int64

// OpenInMemoryDB opens an in-memory SQLite database and applies migrations.
// Every call gets its own database so tests do not observe each other's records.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
	d, err := db.Open(db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// A single connection keeps the shared in-memory database alive and avoids table locks.
	d.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// NewRecords returns typed record views over a fresh in-memory store.
func NewRecords(t *testing.T, name string) *repository.Records {
	t.Helper()
	return repository.NewRecords(repository.NewRecordStore(OpenInMemoryDB(t, name), db.DriverSQLite))
}

// Sequence returns an id generator yielding prefix-1, prefix-2, ...
func Sequence(prefix string) func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("%s-%d", prefix, n.Add(1)) }
}

// CtxWithBearer returns a context containing gRPC metadata Authorization header with the given token.
func CtxWithBearer(ctx context.Context, token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(ctx, md)
}
