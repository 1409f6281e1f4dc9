// Package session holds the current actor's user snapshot outside the persistent collections.
package session

import (
	"context"
	"errors"
	"sync"

	"furamora/models"
	"furamora/repository"
)

// ErrCorrupt means a session record exists but cannot be read.
var ErrCorrupt = errors.New("session record is corrupt")

// Holder is the explicit session context passed to identity operations.
// Current returns (nil, nil) when nobody is logged in.
type Holder interface {
	Current(ctx context.Context) (*models.User, error)
	Establish(ctx context.Context, u models.User) error
	Clear(ctx context.Context) error
}

// StoreHolder keeps the session in the record store's `session` singleton, so every
// process sharing the store sees the same logged-in actor.
type StoreHolder struct {
	rec *repository.Singleton[models.User]
}

func NewStoreHolder(rec *repository.Singleton[models.User]) *StoreHolder {
	return &StoreHolder{rec: rec}
}

func (h *StoreHolder) Current(ctx context.Context) (*models.User, error) {
	u, err := h.rec.Load(ctx)
	if errors.Is(err, repository.ErrMalformed) {
		return nil, ErrCorrupt
	}
	return u, err
}

func (h *StoreHolder) Establish(ctx context.Context, u models.User) error {
	return h.rec.Store(ctx, u)
}

func (h *StoreHolder) Clear(ctx context.Context) error {
	return h.rec.Clear(ctx)
}

// MemoryHolder keeps the session in process memory; the gRPC layer builds one per call
// from the caller's token and reads it back to decide whether to issue a new token.
type MemoryHolder struct {
	mu      sync.Mutex
	user    *models.User
	corrupt bool
	changed bool
}

// NewMemoryHolder starts with u (nil for anonymous).
func NewMemoryHolder(u *models.User) *MemoryHolder {
	h := &MemoryHolder{}
	if u != nil {
		cp := *u
		h.user = &cp
	}
	return h
}

// NewCorruptHolder represents a caller whose session could not be parsed.
func NewCorruptHolder() *MemoryHolder {
	return &MemoryHolder{corrupt: true}
}

func (h *MemoryHolder) Current(context.Context) (*models.User, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.corrupt {
		return nil, ErrCorrupt
	}
	if h.user == nil {
		return nil, nil
	}
	cp := *h.user
	return &cp, nil
}

func (h *MemoryHolder) Establish(_ context.Context, u models.User) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.user = &u
	h.corrupt = false
	h.changed = true
	return nil
}

func (h *MemoryHolder) Clear(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.user = nil
	h.corrupt = false
	h.changed = true
	return nil
}

// Changed reports whether Establish or Clear ran since construction.
func (h *MemoryHolder) Changed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.changed
}
