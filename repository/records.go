package repository

import "furamora/models"

// Record keys.
const (
	KeyUsers        = "users"
	KeyBookings     = "bookings"
	KeyReports      = "reports"
	KeySession      = "session"
	KeyLiveLocation = "liveLocation"
)

// Records bundles the typed views over one record store.
type Records struct {
	Store        RecordStoreI
	Users        *Collection[models.User]
	Bookings     *Collection[models.Booking]
	Reports      *Collection[models.Report]
	Session      *Singleton[models.User]
	LiveLocation *Singleton[models.LiveLocation]
}

func NewRecords(store RecordStoreI) *Records {
	return &Records{
		Store:        store,
		Users:        NewCollection[models.User](store, KeyUsers),
		Bookings:     NewCollection[models.Booking](store, KeyBookings),
		Reports:      NewCollection[models.Report](store, KeyReports),
		Session:      NewSingleton[models.User](store, KeySession),
		LiveLocation: NewSingleton[models.LiveLocation](store, KeyLiveLocation),
	}
}

// OnConflict registers an observer for lost version races on every collection.
func (r *Records) OnConflict(fn ConflictObserver) {
	r.Users.onConflict = fn
	r.Bookings.onConflict = fn
	r.Reports.onConflict = fn
}
