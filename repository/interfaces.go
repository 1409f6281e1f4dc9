package repository

import (
	"context"
	"errors"
)

// AnyVersion makes Put overwrite unconditionally (last writer wins).
const AnyVersion int64 = -1

// ErrVersionConflict is returned by Put when the stored version no longer matches
// the version the caller read.
var ErrVersionConflict = errors.New("record version conflict")

// ErrMalformed is returned by Singleton.Load when the stored payload cannot be decoded.
var ErrMalformed = errors.New("malformed record")

// RecordStoreI is the key-value contract the marketplace core persists through.
// Every value is replaced whole; there are no partial updates.
type RecordStoreI interface {
	// Get returns the payload and version stored under key.
	// A missing key yields (nil, 0, nil).
	Get(ctx context.Context, key string) ([]byte, int64, error)
	// Put replaces the payload under key. expectedVersion 0 requires the key to be absent,
	// a positive value requires that exact stored version, AnyVersion skips the check.
	Put(ctx context.Context, key string, payload []byte, expectedVersion int64) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping checks connectivity.
	Ping(ctx context.Context) error
}
