package identity

import (
	"context"
	"fmt"
	"strings"

	"furamora/internal/apperr"
	"furamora/internal/session"
	"furamora/models"
)

// SaveOwnerProfile updates the owner's name and phone; both are required.
func (s *Service) SaveOwnerProfile(ctx context.Context, sess session.Holder, name, phone string) (models.User, error) {
	me, err := s.RequireRole(ctx, sess, models.RoleOwner)
	if err != nil {
		return models.User{}, err
	}
	name, phone = strings.TrimSpace(name), strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return models.User{}, apperr.Validation("please fill in both your name and phone number")
	}
	return s.updateSelf(ctx, sess, me.ID, func(u *models.User) {
		u.Name = name
		u.Phone = phone
	})
}

// SaveWalkerProfile updates the walker's name, availability and bio; name is required.
func (s *Service) SaveWalkerProfile(ctx context.Context, sess session.Holder, name, availability, bio string) (models.User, error) {
	me, err := s.RequireRole(ctx, sess, models.RoleWalker)
	if err != nil {
		return models.User{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, apperr.Validation("please enter your name")
	}
	return s.updateSelf(ctx, sess, me.ID, func(u *models.User) {
		u.Name = name
		u.Availability = strings.TrimSpace(availability)
		u.Bio = strings.TrimSpace(bio)
	})
}

// PetInput carries the add-pet form.
type PetInput struct {
	Name  string
	Type  string
	Notes string
}

// AddPet appends a pet to the logged-in owner's record.
func (s *Service) AddPet(ctx context.Context, sess session.Holder, in PetInput) (models.Pet, error) {
	me, err := s.RequireRole(ctx, sess, models.RoleOwner)
	if err != nil {
		return models.Pet{}, err
	}
	pet := models.Pet{
		Name:  strings.TrimSpace(in.Name),
		Type:  strings.TrimSpace(in.Type),
		Notes: strings.TrimSpace(in.Notes),
	}
	if pet.Name == "" || pet.Type == "" {
		return models.Pet{}, apperr.Validation("please enter both pet name and type")
	}
	pet.ID = s.newID()
	if _, err := s.updateSelf(ctx, sess, me.ID, func(u *models.User) {
		u.Pets = append(u.Pets, pet)
	}); err != nil {
		return models.Pet{}, err
	}
	return pet, nil
}

// updateSelf applies edit to the stored record of id, refreshes the session snapshot
// and mirrors the new profile.
func (s *Service) updateSelf(ctx context.Context, sess session.Holder, id string, edit func(*models.User)) (models.User, error) {
	var updated models.User
	_, err := s.users.Update(ctx, func(items []models.User) ([]models.User, bool, error) {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			out := make([]models.User, len(items))
			copy(out, items)
			u := out[i]
			u.Pets = append([]models.Pet(nil), u.Pets...)
			edit(&u)
			out[i] = u
			updated = u
			return out, true, nil
		}
		return nil, false, apperr.NotFound("account")
	})
	if err != nil {
		return models.User{}, storeErr("users", err)
	}
	if err := sess.Establish(ctx, updated); err != nil {
		return models.User{}, fmt.Errorf("refresh session: %w", err)
	}
	s.mirror.Mirror(updated)
	return updated, nil
}
