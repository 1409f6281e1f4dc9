// Package identity implements registration, login, the role guard, and profile edits.
package identity

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/apex/log"
	"github.com/google/uuid"

	"furamora/internal/apperr"
	"furamora/internal/mirror"
	"furamora/internal/session"
	"furamora/models"
	"furamora/repository"
)

// Destination is the dashboard an actor lands on after login, or the login page.
type Destination string

const (
	DestinationLogin  Destination = "login"
	DestinationOwner  Destination = "owner"
	DestinationWalker Destination = "walker"
	DestinationAdmin  Destination = "admin"
)

// DestinationFor maps a role to its dashboard.
func DestinationFor(r models.Role) Destination {
	switch r {
	case models.RoleWalker:
		return DestinationWalker
	case models.RoleAdmin:
		return DestinationAdmin
	default:
		return DestinationOwner
	}
}

// WalkerDistancesKm are the demo distances handed to new walkers.
var WalkerDistancesKm = []float64{1, 3, 5}

// Recorder receives identity events for metrics.
type Recorder interface {
	Registered(role string)
	Login(ok bool)
}

type Service struct {
	users        *repository.Collection[models.User]
	mirror       *mirror.Dispatcher
	recorder     Recorder
	seed         models.AdminSeed
	newID        func() string
	pickDistance func() float64
}

// NewService wires the identity component. mirror and recorder may be nil.
func NewService(users *repository.Collection[models.User], m *mirror.Dispatcher, rec Recorder, seed models.AdminSeed) *Service {
	if seed.Email == "" {
		seed = models.DefaultAdminSeed
	}
	return &Service{
		users:    users,
		mirror:   m,
		recorder: rec,
		seed:     seed,
		newID:    uuid.NewString,
		pickDistance: func() float64 {
			return WalkerDistancesKm[rand.Intn(len(WalkerDistancesKm))]
		},
	}
}

// AdminSeed returns the configured admin account description.
func (s *Service) AdminSeed() models.AdminSeed { return s.seed }

// seedAdmin appends the admin record when no admin with the well-known email exists.
func (s *Service) seedAdmin(users []models.User) ([]models.User, bool) {
	for _, u := range users {
		if s.seed.Matches(u) {
			return users, false
		}
	}
	return append(users, s.seed.User()), true
}

// EnsureAdminSeed returns all users, inserting the admin record first if it is missing.
// The collection is written back only when the seed was added.
func (s *Service) EnsureAdminSeed(ctx context.Context) ([]models.User, error) {
	users, err := s.users.Update(ctx, func(items []models.User) ([]models.User, bool, error) {
		out, added := s.seedAdmin(items)
		return out, added, nil
	})
	if err != nil {
		return nil, storeErr("users", err)
	}
	return users, nil
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Register creates the account, or replaces the record of an existing email in place
// keeping its identifier, and logs the new user in.
func (s *Service) Register(ctx context.Context, sess session.Holder, in RegisterInput) (models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := models.NormalizeEmail(in.Email)
	role := models.ParseRole(in.Role)
	if name == "" || email == "" || in.Password == "" || role == "" {
		return models.User{}, apperr.Validation("please fill in all fields before registering")
	}
	if role == models.RoleAdmin {
		return models.User{}, apperr.Validation("you cannot register as an admin")
	}
	if !role.Valid() {
		return models.User{}, apperr.Validation(fmt.Sprintf("unknown role %q", in.Role))
	}

	var created models.User
	_, err := s.users.Update(ctx, func(items []models.User) ([]models.User, bool, error) {
		items, _ = s.seedAdmin(items)
		idx := -1
		for i, u := range items {
			if u.Email == email {
				idx = i
				break
			}
		}
		if idx >= 0 && s.seed.Matches(items[idx]) {
			return nil, false, apperr.Validation("this email is reserved")
		}

		u := models.User{
			ID:       s.newID(),
			Name:     name,
			Email:    email,
			Password: in.Password,
			Role:     role,
			Active:   models.Bool(true),
			Pets:     []models.Pet{},
		}
		if role == models.RoleWalker {
			u.DistanceKm = models.Float(s.pickDistance())
		}
		out := make([]models.User, len(items), len(items)+1)
		copy(out, items)
		if idx >= 0 {
			u.ID = items[idx].ID
			out[idx] = u
		} else {
			out = append(out, u)
		}
		created = u
		return out, true, nil
	})
	if err != nil {
		return models.User{}, storeErr("users", err)
	}

	if err := sess.Establish(ctx, created); err != nil {
		return models.User{}, fmt.Errorf("establish session: %w", err)
	}
	s.mirror.Mirror(created)
	if s.recorder != nil {
		s.recorder.Registered(string(role))
	}
	log.WithFields(log.Fields{"user_id": created.ID, "role": role}).Info("user registered")
	return created, nil
}

// Login establishes a session for the active user matching email, password and role
// exactly. Any mismatch yields the same generic auth error.
func (s *Service) Login(ctx context.Context, sess session.Holder, email, password, role string) (models.User, Destination, error) {
	email = models.NormalizeEmail(email)
	r := models.ParseRole(role)
	if email == "" || password == "" || r == "" {
		return models.User{}, DestinationLogin, apperr.Validation("please enter your email, password and role")
	}
	users, err := s.EnsureAdminSeed(ctx)
	if err != nil {
		return models.User{}, DestinationLogin, err
	}
	var match *models.User
	for i := range users {
		u := users[i]
		if u.Email == email && u.Password == password && u.Role == r && u.IsActive() {
			match = &u
			break
		}
	}
	if s.recorder != nil {
		s.recorder.Login(match != nil)
	}
	if match == nil {
		log.WithField("role", r).Info("login rejected")
		return models.User{}, DestinationLogin, apperr.Auth()
	}
	if err := sess.Establish(ctx, *match); err != nil {
		return models.User{}, DestinationLogin, fmt.Errorf("establish session: %w", err)
	}
	return *match, DestinationFor(match.Role), nil
}

// RequireRole is the access guard of every gated view. An empty expected role admits
// any authenticated user. Missing or unreadable sessions are cleared and reported as
// session errors; a role mismatch is a permission error and leaves the session alone.
func (s *Service) RequireRole(ctx context.Context, sess session.Holder, expected models.Role) (*models.User, error) {
	u, err := sess.Current(ctx)
	if errors.Is(err, session.ErrCorrupt) {
		_ = sess.Clear(ctx)
		return nil, apperr.Session("there was a problem with your login data, please log in again")
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if u == nil {
		_ = sess.Clear(ctx)
		return nil, apperr.Session("please log in to access this page")
	}
	if expected != "" && u.Role != expected {
		return nil, apperr.Permission("you do not have permission to view this page")
	}
	return u, nil
}

// Logout clears the session.
func (s *Service) Logout(ctx context.Context, sess session.Holder) error {
	return sess.Clear(ctx)
}

func storeErr(what string, err error) error {
	if errors.Is(err, repository.ErrVersionConflict) {
		return apperr.Conflict(what, err)
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("%s store: %w", what, err)
}
