package mirror

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"

	"furamora/models"
)

// FailureRecorder counts failed mirror writes.
type FailureRecorder interface {
	MirrorFailed()
}

// Dispatcher sends profile upserts to a Sink in the background.
// Failures are logged and counted here and never reach the caller; there is no retry
// and no ordering guarantee between two upserts of the same user.
type Dispatcher struct {
	sink     Sink
	timeout  time.Duration
	failures FailureRecorder
	wg       sync.WaitGroup
}

// NewDispatcher returns a dispatcher for sink. A nil sink disables mirroring.
func NewDispatcher(sink Sink, timeout time.Duration, failures FailureRecorder) *Dispatcher {
	if sink == nil {
		sink = NopSink{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{sink: sink, timeout: timeout, failures: failures}
}

// Mirror schedules an upsert of u's public profile and returns immediately.
func (d *Dispatcher) Mirror(u models.User) {
	if d == nil {
		return
	}
	profile := u.Public()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		ctxLog := log.WithFields(log.Fields{"user_id": profile.ID, "sink": d.sink.Name()})
		if err := d.sink.UpsertUserProfile(ctx, profile.ID, profile); err != nil {
			ctxLog.WithError(err).Error("mirror user profile")
			if d.failures != nil {
				d.failures.MirrorFailed()
			}
			return
		}
		ctxLog.WithField("email", profile.Email).Debug("user profile mirrored")
	}()
}

// Wait blocks until every scheduled upsert has finished. Used on shutdown and in tests.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
