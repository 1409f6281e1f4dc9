package grpcserver

import (
	"furamora/internal/identity"
	"furamora/internal/livelocation"
	"furamora/models"
)

type Empty struct{}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AuthResponse answers Register and Login; the session token travels in the
// session-token response header.
type AuthResponse struct {
	User        models.PublicProfile `json:"user"`
	Destination identity.Destination `json:"destination"`
}

type UserResponse struct {
	User models.PublicProfile `json:"user"`
}

type SaveOwnerProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type SaveWalkerProfileRequest struct {
	Name         string `json:"name"`
	Availability string `json:"availability"`
	Bio          string `json:"bio"`
}

type AddPetRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Notes string `json:"notes"`
}

type AddPetResponse struct {
	Pet models.Pet `json:"pet"`
}

type CreateBookingRequest struct {
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

type RespondToBookingRequest struct {
	BookingID string `json:"bookingId"`
	Status    string `json:"status"`
}

type CompleteBookingRequest struct {
	BookingID string `json:"bookingId"`
}

// BookingResponse holds nil when the booking id did not resolve.
type BookingResponse struct {
	Booking *models.Booking `json:"booking"`
}

type SubmitReportRequest struct {
	Text string `json:"text"`
}

type SubmitReportResponse struct {
	Report models.Report `json:"report"`
}

// StartLiveLocationRequest uses the demo coordinates when Lat and Lng are omitted.
type StartLiveLocationRequest struct {
	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`
}

type LiveLocationResponse struct {
	Location models.LiveLocation `json:"location"`
}

type LiveLocationStatusResponse struct {
	Status livelocation.Status `json:"status"`
}

type OwnerDashboardRequest struct {
	MaxDistanceKm *float64 `json:"maxDistanceKm,omitempty"`
}

type AdminDashboardRequest struct {
	Role   string `json:"role"`
	Status string `json:"status"`
}
