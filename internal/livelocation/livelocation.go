// Package livelocation manages the single shared "walker is sharing location" record.
package livelocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"

	"furamora/internal/apperr"
	"furamora/internal/geo"
	"furamora/models"
	"furamora/repository"
)

// Demo coordinates used when the walker does not supply any.
const (
	DemoLat = 51.509865
	DemoLng = -0.118092
)

type State string

const (
	StateActive     State = "active"
	StateStopped    State = "stopped"
	StateUnreadable State = "unreadable"
)

// Coords is an optional caller-supplied position.
type Coords struct {
	Lat float64
	Lng float64
}

// Status is what a dashboard renders for the live-location panel.
// Cell is only set when the stored coordinates are valid.
type Status struct {
	State       State                `json:"state"`
	Location    *models.LiveLocation `json:"location,omitempty"`
	ValidCoords bool                 `json:"validCoords"`
	Cell        string               `json:"cell,omitempty"`
}

type Service struct {
	rec *repository.Singleton[models.LiveLocation]
	now func() time.Time
}

func NewService(rec *repository.Singleton[models.LiveLocation]) *Service {
	return &Service{rec: rec, now: time.Now}
}

// Start overwrites the record with the walker's position. A nil coords uses the demo point.
func (s *Service) Start(ctx context.Context, walker models.User, coords *Coords) (models.LiveLocation, error) {
	if walker.Role != models.RoleWalker {
		return models.LiveLocation{}, apperr.Permission("only walkers can share their location")
	}
	c := Coords{Lat: DemoLat, Lng: DemoLng}
	if coords != nil {
		c = *coords
	}
	if !geo.Valid(c.Lat, c.Lng) {
		return models.LiveLocation{}, apperr.Validation("coordinates are out of range")
	}
	loc := models.LiveLocation{
		Lat:       c.Lat,
		Lng:       c.Lng,
		WalkerID:  walker.ID,
		Timestamp: s.now().UnixMilli(),
	}
	if err := s.rec.Store(ctx, loc); err != nil {
		return models.LiveLocation{}, fmt.Errorf("store live location: %w", err)
	}
	log.WithFields(log.Fields{"walker_id": walker.ID, "cell": geo.CellToken(c.Lat, c.Lng)}).Info("live location started")
	return loc, nil
}

// Stop removes the record; stopping when nothing is shared is not an error.
func (s *Service) Stop(ctx context.Context, walker models.User) error {
	if walker.Role != models.RoleWalker {
		return apperr.Permission("only walkers can stop location sharing")
	}
	if err := s.rec.Clear(ctx); err != nil {
		return fmt.Errorf("clear live location: %w", err)
	}
	log.WithField("walker_id", walker.ID).Info("live location stopped")
	return nil
}

// Status reads the record. Presence alone means active; there is no staleness check.
func (s *Service) Status(ctx context.Context) (Status, error) {
	loc, err := s.rec.Load(ctx)
	if errors.Is(err, repository.ErrMalformed) {
		log.WithError(err).Warn("live location record unreadable")
		return Status{State: StateUnreadable}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("load live location: %w", err)
	}
	if loc == nil {
		return Status{State: StateStopped}, nil
	}
	st := Status{State: StateActive, Location: loc, ValidCoords: geo.Valid(loc.Lat, loc.Lng)}
	if st.ValidCoords {
		st.Cell = geo.CellToken(loc.Lat, loc.Lng)
	}
	return st, nil
}
