package visibility

import (
	"context"
	"fmt"

	"furamora/internal/livelocation"
	"furamora/models"
	"furamora/repository"
)

// UserSource returns the users collection with the admin seed in place.
type UserSource interface {
	EnsureAdminSeed(ctx context.Context) ([]models.User, error)
}

// LocationSource reports the live-location panel.
type LocationSource interface {
	Status(ctx context.Context) (livelocation.Status, error)
}

type OwnerDashboard struct {
	Profile      models.PublicProfile   `json:"profile"`
	Bookings     []models.Booking       `json:"bookings"`
	Walkers      []models.PublicProfile `json:"walkers"`
	Reports      []models.Report        `json:"reports"`
	LiveLocation livelocation.Status    `json:"liveLocation"`
}

type WalkerDashboard struct {
	Profile      models.PublicProfile `json:"profile"`
	Pending      []models.Booking     `json:"pending"`
	Mine         []models.Booking     `json:"mine"`
	LiveLocation livelocation.Status  `json:"liveLocation"`
}

type AdminDashboard struct {
	Users    []models.PublicProfile `json:"users"`
	Bookings []models.Booking       `json:"bookings"`
}

// Loader reads the current store state and applies the projections.
type Loader struct {
	users    UserSource
	bookings *repository.Collection[models.Booking]
	reports  *repository.Collection[models.Report]
	location LocationSource
}

func NewLoader(users UserSource, bookings *repository.Collection[models.Booking], reports *repository.Collection[models.Report], location LocationSource) *Loader {
	return &Loader{users: users, bookings: bookings, reports: reports, location: location}
}

// Owner builds the dashboard of the owner in the session. maxKm limits the walker list.
func (l *Loader) Owner(ctx context.Context, me models.User, maxKm *float64) (OwnerDashboard, error) {
	users, err := l.users.EnsureAdminSeed(ctx)
	if err != nil {
		return OwnerDashboard{}, err
	}
	bookings, err := l.bookings.Load(ctx)
	if err != nil {
		return OwnerDashboard{}, fmt.Errorf("load bookings: %w", err)
	}
	reports, err := l.reports.Load(ctx)
	if err != nil {
		return OwnerDashboard{}, fmt.Errorf("load reports: %w", err)
	}
	live, err := l.location.Status(ctx)
	if err != nil {
		return OwnerDashboard{}, err
	}
	return OwnerDashboard{
		Profile:      profileOf(users, me),
		Bookings:     OwnerBookings(bookings.Items, me.ID),
		Walkers:      Walkers(users, maxKm),
		Reports:      OwnerReports(reports.Items, me.ID),
		LiveLocation: live,
	}, nil
}

// Walker builds the dashboard of the walker in the session.
func (l *Loader) Walker(ctx context.Context, me models.User) (WalkerDashboard, error) {
	users, err := l.users.EnsureAdminSeed(ctx)
	if err != nil {
		return WalkerDashboard{}, err
	}
	bookings, err := l.bookings.Load(ctx)
	if err != nil {
		return WalkerDashboard{}, fmt.Errorf("load bookings: %w", err)
	}
	live, err := l.location.Status(ctx)
	if err != nil {
		return WalkerDashboard{}, err
	}
	return WalkerDashboard{
		Profile:      profileOf(users, me),
		Pending:      PendingBookings(bookings.Items),
		Mine:         WalkerBookings(bookings.Items, me.ID),
		LiveLocation: live,
	}, nil
}

// Admin builds the admin overview with optional role and status filters.
func (l *Loader) Admin(ctx context.Context, roleFilter, statusFilter string) (AdminDashboard, error) {
	users, err := l.users.EnsureAdminSeed(ctx)
	if err != nil {
		return AdminDashboard{}, err
	}
	bookings, err := l.bookings.Load(ctx)
	if err != nil {
		return AdminDashboard{}, fmt.Errorf("load bookings: %w", err)
	}
	return AdminDashboard{
		Users:    UsersByRole(users, roleFilter),
		Bookings: BookingsByStatus(bookings.Items, statusFilter),
	}, nil
}

// profileOf prefers the stored record over the session snapshot.
func profileOf(users []models.User, me models.User) models.PublicProfile {
	for _, u := range users {
		if u.ID == me.ID {
			return u.Public()
		}
	}
	return me.Public()
}
