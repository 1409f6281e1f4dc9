package models

// LiveLocation is the single shared "walker is sharing location" record.
// Its presence means sharing is active; there is no staleness check.
// Timestamp is unix milliseconds.
type LiveLocation struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	WalkerID  string  `json:"walkerId"`
	Timestamp int64   `json:"time"`
}
