package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/apex/log"
)

// maxAttempts bounds the read-modify-write retries of Collection.Update.
const maxAttempts = 3

// ConflictObserver is notified each time a write loses a version race.
type ConflictObserver func(key string)

// Snapshot is a collection as read at a given version.
type Snapshot[T any] struct {
	Items   []T
	Version int64
}

// Collection is a JSON array stored whole under one key.
type Collection[T any] struct {
	store      RecordStoreI
	key        string
	onConflict ConflictObserver
}

func NewCollection[T any](store RecordStoreI, key string) *Collection[T] {
	return &Collection[T]{store: store, key: key}
}

// Key returns the record key of the collection.
func (c *Collection[T]) Key() string { return c.key }

// Load reads the collection. Undecodable payloads load as an empty collection; the
// stored version is kept so the next Save replaces the bad payload.
func (c *Collection[T]) Load(ctx context.Context) (Snapshot[T], error) {
	payload, version, err := c.store.Get(ctx, c.key)
	if err != nil {
		return Snapshot[T]{}, fmt.Errorf("load %s: %w", c.key, err)
	}
	snap := Snapshot[T]{Items: []T{}, Version: version}
	if len(payload) == 0 {
		return snap, nil
	}
	var items []T
	if err := json.Unmarshal(payload, &items); err != nil {
		log.WithError(err).WithField("key", c.key).Warn("discarding malformed collection")
		return snap, nil
	}
	if items != nil {
		snap.Items = items
	}
	return snap, nil
}

// Save writes items if the stored version still equals snap.Version.
func (c *Collection[T]) Save(ctx context.Context, snap Snapshot[T]) error {
	items := snap.Items
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.store.Put(ctx, c.key, payload, snap.Version); err != nil {
		if errors.Is(err, ErrVersionConflict) && c.onConflict != nil {
			c.onConflict(c.key)
		}
		return err
	}
	return nil
}

// Mutation transforms the current items. It returns the new items and whether
// anything changed; unchanged results are not written back.
type Mutation[T any] func(items []T) ([]T, bool, error)

// Update runs a read → modify → compare-and-set cycle, re-running fn on a fresh read
// when another writer got there first. After maxAttempts it returns ErrVersionConflict.
func (c *Collection[T]) Update(ctx context.Context, fn Mutation[T]) ([]T, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		snap, err := c.Load(ctx)
		if err != nil {
			return nil, err
		}
		items, changed, err := fn(snap.Items)
		if err != nil {
			return nil, err
		}
		if !changed {
			return snap.Items, nil
		}
		err = c.Save(ctx, Snapshot[T]{Items: items, Version: snap.Version})
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, fmt.Errorf("save %s: %w", c.key, err)
		}
		lastErr = err
		log.WithField("key", c.key).WithField("attempt", attempt+1).Debug("version conflict, retrying")
	}
	return nil, lastErr
}

// Singleton is a single optional JSON object stored under one key.
type Singleton[T any] struct {
	store RecordStoreI
	key   string
}

func NewSingleton[T any](store RecordStoreI, key string) *Singleton[T] {
	return &Singleton[T]{store: store, key: key}
}

// Load returns nil when absent and ErrMalformed when the payload cannot be decoded.
func (s *Singleton[T]) Load(ctx context.Context) (*T, error) {
	payload, _, err := s.store.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.key, err)
	}
	if len(payload) == 0 {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("%s: %w", s.key, ErrMalformed)
	}
	return &v, nil
}

// Store overwrites the record.
func (s *Singleton[T]) Store(ctx context.Context, v T) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	return s.store.Put(ctx, s.key, payload, AnyVersion)
}

// Clear deletes the record.
func (s *Singleton[T]) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, s.key)
}
