// Package visibility computes what each role may see. Every function here is a pure
// projection of the stored collections; dashboards recompute them on every request.
package visibility

import (
	"furamora/models"
)

// FilterAll disables the admin role and status filters.
const FilterAll = "all"

// Walkers returns active walkers, optionally limited to distanceKm <= maxKm.
// Walkers without a distance are dropped only when a limit is given.
func Walkers(users []models.User, maxKm *float64) []models.PublicProfile {
	out := []models.PublicProfile{}
	for _, u := range users {
		if u.Role != models.RoleWalker || !u.IsActive() {
			continue
		}
		if maxKm != nil && (u.DistanceKm == nil || *u.DistanceKm > *maxKm) {
			continue
		}
		out = append(out, u.Public())
	}
	return out
}

// OwnerBookings returns the bookings created by ownerID.
func OwnerBookings(bookings []models.Booking, ownerID string) []models.Booking {
	return filterBookings(bookings, func(b models.Booking) bool { return b.OwnerID == ownerID })
}

// OwnerReports returns the reports written for ownerID's bookings.
func OwnerReports(reports []models.Report, ownerID string) []models.Report {
	out := []models.Report{}
	for _, r := range reports {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out
}

// PendingBookings is the open pool; it does not depend on which walker is asking.
func PendingBookings(bookings []models.Booking) []models.Booking {
	return filterBookings(bookings, func(b models.Booking) bool { return b.Status == models.BookingPending })
}

// WalkerBookings returns walkerID's Accepted and Completed bookings.
func WalkerBookings(bookings []models.Booking, walkerID string) []models.Booking {
	return filterBookings(bookings, func(b models.Booking) bool {
		return b.AssignedTo(walkerID) && (b.Status == models.BookingAccepted || b.Status == models.BookingCompleted)
	})
}

// UsersByRole returns every user whose role equals filter exactly, or all users when
// filter is empty or "all". Passwords are stripped.
func UsersByRole(users []models.User, filter string) []models.PublicProfile {
	out := []models.PublicProfile{}
	for _, u := range users {
		if filter == "" || filter == FilterAll || string(u.Role) == filter {
			out = append(out, u.Public())
		}
	}
	return out
}

// BookingsByStatus returns every booking whose status equals filter exactly, or all
// bookings when filter is empty or "all".
func BookingsByStatus(bookings []models.Booking, filter string) []models.Booking {
	return filterBookings(bookings, func(b models.Booking) bool {
		return filter == "" || filter == FilterAll || string(b.Status) == filter
	})
}

func filterBookings(bookings []models.Booking, keep func(models.Booking) bool) []models.Booking {
	out := []models.Booking{}
	for _, b := range bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}
