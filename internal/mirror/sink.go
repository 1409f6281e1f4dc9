// Package mirror replicates public user profiles to a remote document store.
// Replication is best effort: the dispatcher never blocks or fails the caller.
package mirror

import (
	"context"

	"github.com/apex/log"

	"furamora/models"
)

// Sink is the remote document store contract.
type Sink interface {
	UpsertUserProfile(ctx context.Context, id string, profile models.PublicProfile) error
	Name() string
}

// NopSink is used when no remote store is configured.
type NopSink struct{}

func (NopSink) UpsertUserProfile(_ context.Context, id string, _ models.PublicProfile) error {
	log.WithField("user_id", id).Debug("mirror disabled, skipping cloud save")
	return nil
}

func (NopSink) Name() string { return "none" }
