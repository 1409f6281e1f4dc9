// Package reports attaches walk reports to a walker's latest accepted booking.
package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/google/uuid"

	"furamora/internal/apperr"
	"furamora/internal/booking"
	"furamora/models"
	"furamora/repository"
)

// Recorder receives report events for metrics.
type Recorder interface {
	ReportSubmitted()
}

type Service struct {
	bookings *repository.Collection[models.Booking]
	reports  *repository.Collection[models.Report]
	recorder Recorder
	newID    func() string
}

func NewService(bookings *repository.Collection[models.Booking], reports *repository.Collection[models.Report], rec Recorder) *Service {
	return &Service{bookings: bookings, reports: reports, recorder: rec, newID: uuid.NewString}
}

// EligibleBooking returns the walker's Accepted booking that sorts last by date and time.
func EligibleBooking(bookings []models.Booking, walkerID string) (models.Booking, bool) {
	var mine []models.Booking
	for _, b := range bookings {
		if b.Status == models.BookingAccepted && b.AssignedTo(walkerID) {
			mine = append(mine, b)
		}
	}
	return booking.Latest(mine)
}

// Submit appends a report for the walker's latest accepted booking. The booking is not
// modified and repeated submissions produce separate reports.
func (s *Service) Submit(ctx context.Context, walker models.User, text string) (models.Report, error) {
	if walker.Role != models.RoleWalker {
		return models.Report{}, apperr.Permission("only walkers can submit reports")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Report{}, apperr.Validation("please write something about the walk")
	}

	snap, err := s.bookings.Load(ctx)
	if err != nil {
		return models.Report{}, fmt.Errorf("load bookings: %w", err)
	}
	b, ok := EligibleBooking(snap.Items, walker.ID)
	if !ok {
		return models.Report{}, apperr.NoEligibleBooking()
	}

	r := models.Report{
		ID:         s.newID(),
		BookingID:  b.ID,
		OwnerID:    b.OwnerID,
		WalkerID:   walker.ID,
		WalkerName: walker.Name,
		Date:       b.Date,
		Time:       b.Time,
		Text:       text,
	}
	_, err = s.reports.Update(ctx, func(items []models.Report) ([]models.Report, bool, error) {
		out := make([]models.Report, len(items), len(items)+1)
		copy(out, items)
		return append(out, r), true, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return models.Report{}, apperr.Conflict("reports", err)
		}
		return models.Report{}, fmt.Errorf("reports store: %w", err)
	}
	if s.recorder != nil {
		s.recorder.ReportSubmitted()
	}
	log.WithFields(log.Fields{"report_id": r.ID, "booking_id": b.ID, "walker_id": walker.ID}).Info("report submitted")
	return r, nil
}
