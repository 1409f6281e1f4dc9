package models

import "strings"

// BookingStatus represents where a booking is in its lifecycle.
type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingAccepted  BookingStatus = "Accepted"
	BookingDeclined  BookingStatus = "Declined"
	BookingCompleted BookingStatus = "Completed"
)

// DefaultService is used when the owner leaves the service field blank.
const DefaultService = "Dog Walk"

// ParseBookingStatus accepts the canonical capitalized names case-insensitively.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	s = strings.TrimSpace(s)
	for _, st := range []BookingStatus{BookingPending, BookingAccepted, BookingDeclined, BookingCompleted} {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// Booking is a walk request created by an owner.
// OwnerName and WalkerName are snapshots taken when the booking is created/accepted;
// they are not re-synced when the user later edits their profile.
// Date and Time are opaque strings compared lexicographically (ISO 8601 expected).
type Booking struct {
	ID         string        `json:"id"`
	OwnerID    string        `json:"ownerId"`
	OwnerName  string        `json:"ownerName"`
	WalkerID   *string       `json:"walkerId"`
	WalkerName string        `json:"walkerName"`
	Service    string        `json:"service"`
	Date       string        `json:"date"`
	Time       string        `json:"time"`
	Status     BookingStatus `json:"status"`
}

// AssignedTo reports whether the booking is owned by the given walker.
func (b Booking) AssignedTo(walkerID string) bool {
	return b.WalkerID != nil && *b.WalkerID == walkerID
}
