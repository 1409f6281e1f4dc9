// Package booking owns the booking lifecycle: creation and status transitions.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/google/uuid"

	"furamora/internal/apperr"
	"furamora/models"
	"furamora/repository"
)

// Recorder receives lifecycle events for metrics.
type Recorder interface {
	BookingCreated()
	BookingTransition(status string)
}

type Engine struct {
	bookings *repository.Collection[models.Booking]
	recorder Recorder
	newID    func() string
}

func NewEngine(bookings *repository.Collection[models.Booking], rec Recorder) *Engine {
	return &Engine{bookings: bookings, recorder: rec, newID: uuid.NewString}
}

// CreateInput carries the booking form.
type CreateInput struct {
	Service string
	Date    string
	Time    string
}

// Create appends a Pending booking for owner with no walker assigned.
func (e *Engine) Create(ctx context.Context, owner models.User, in CreateInput) (models.Booking, error) {
	if owner.Role != models.RoleOwner {
		return models.Booking{}, apperr.Permission("only owners can create bookings")
	}
	date, tm := strings.TrimSpace(in.Date), strings.TrimSpace(in.Time)
	if date == "" || tm == "" {
		return models.Booking{}, apperr.Validation("please choose a date and time")
	}
	service := strings.TrimSpace(in.Service)
	if service == "" {
		service = models.DefaultService
	}
	b := models.Booking{
		ID:        e.newID(),
		OwnerID:   owner.ID,
		OwnerName: owner.Name,
		Service:   service,
		Date:      date,
		Time:      tm,
		Status:    models.BookingPending,
	}
	_, err := e.bookings.Update(ctx, func(items []models.Booking) ([]models.Booking, bool, error) {
		out := make([]models.Booking, len(items), len(items)+1)
		copy(out, items)
		return append(out, b), true, nil
	})
	if err != nil {
		return models.Booking{}, storeErr(err)
	}
	if e.recorder != nil {
		e.recorder.BookingCreated()
	}
	log.WithFields(log.Fields{"booking_id": b.ID, "owner_id": owner.ID}).Info("booking created")
	return b, nil
}

// Transition moves bookingID to the target status on behalf of walker.
//
//	Pending  -> Accepted  assigns walker id and name
//	Pending  -> Declined  leaves the booking unassigned
//	Accepted -> Completed only by the assigned walker
//
// An unknown booking id is a no-op and returns (nil, nil). The check and the write
// happen in one compare-and-set cycle, so two walkers racing to accept the same
// booking cannot both succeed.
func (e *Engine) Transition(ctx context.Context, bookingID string, to models.BookingStatus, walker models.User) (*models.Booking, error) {
	if walker.Role != models.RoleWalker {
		return nil, apperr.Permission("only walkers can change booking status")
	}
	var result *models.Booking
	_, err := e.bookings.Update(ctx, func(items []models.Booking) ([]models.Booking, bool, error) {
		result = nil
		idx := indexOf(items, bookingID)
		if idx < 0 {
			return items, false, nil
		}
		next, err := apply(items[idx], to, walker)
		if err != nil {
			return nil, false, err
		}
		out := make([]models.Booking, len(items))
		copy(out, items)
		out[idx] = next
		result = &next
		return out, true, nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if result == nil {
		log.WithField("booking_id", bookingID).Debug("transition on unknown booking ignored")
		return nil, nil
	}
	if e.recorder != nil {
		e.recorder.BookingTransition(string(to))
	}
	log.WithFields(log.Fields{"booking_id": bookingID, "status": to, "walker_id": walker.ID}).Info("booking transitioned")
	return result, nil
}

// Respond is the walker's accept/decline action on a pending booking.
func (e *Engine) Respond(ctx context.Context, bookingID string, to models.BookingStatus, walker models.User) (*models.Booking, error) {
	if to != models.BookingAccepted && to != models.BookingDeclined {
		return nil, apperr.Validation("a booking can only be accepted or declined")
	}
	return e.Transition(ctx, bookingID, to, walker)
}

// Complete marks the walker's accepted booking as done.
func (e *Engine) Complete(ctx context.Context, bookingID string, walker models.User) (*models.Booking, error) {
	return e.Transition(ctx, bookingID, models.BookingCompleted, walker)
}

func apply(b models.Booking, to models.BookingStatus, walker models.User) (models.Booking, error) {
	switch to {
	case models.BookingAccepted:
		if b.Status != models.BookingPending {
			return b, apperr.InvalidTransition(string(b.Status), string(to))
		}
		id := walker.ID
		b.WalkerID = &id
		b.WalkerName = walker.Name
	case models.BookingDeclined:
		if b.Status != models.BookingPending {
			return b, apperr.InvalidTransition(string(b.Status), string(to))
		}
	case models.BookingCompleted:
		if b.Status != models.BookingAccepted {
			return b, apperr.InvalidTransition(string(b.Status), string(to))
		}
		if !b.AssignedTo(walker.ID) {
			return b, apperr.Permission("only the assigned walker can complete this booking")
		}
	default:
		return b, apperr.InvalidTransition(string(b.Status), string(to))
	}
	b.Status = to
	return b, nil
}

func indexOf(items []models.Booking, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// SortChronologically orders bookings by date then time, both compared as strings.
// The sort is stable, so equal keys keep their stored order.
func SortChronologically(bs []models.Booking) {
	sort.SliceStable(bs, func(i, j int) bool {
		if bs[i].Date != bs[j].Date {
			return bs[i].Date < bs[j].Date
		}
		return bs[i].Time < bs[j].Time
	})
}

// Latest returns the last booking under the chronological order.
func Latest(bs []models.Booking) (models.Booking, bool) {
	if len(bs) == 0 {
		return models.Booking{}, false
	}
	sorted := make([]models.Booking, len(bs))
	copy(sorted, bs)
	SortChronologically(sorted)
	return sorted[len(sorted)-1], true
}

func storeErr(err error) error {
	if errors.Is(err, repository.ErrVersionConflict) {
		return apperr.Conflict("bookings", err)
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("bookings store: %w", err)
}
