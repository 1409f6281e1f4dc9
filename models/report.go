package models

// Report is a free-text walk report attached to a walker's accepted booking.
// Date and Time are copied from the booking. Reports are immutable once written.
type Report struct {
	ID         string `json:"id"`
	BookingID  string `json:"bookingId"`
	OwnerID    string `json:"ownerId"`
	WalkerID   string `json:"walkerId"`
	WalkerName string `json:"walkerName"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Text       string `json:"text"`
}
