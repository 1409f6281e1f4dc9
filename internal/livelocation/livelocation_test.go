package livelocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"furamora/internal/apperr"
	"furamora/internal/testutil"
	"furamora/models"
	"furamora/repository"
)

var walker = models.User{ID: "w1", Role: models.RoleWalker}

func newService(t *testing.T) (*Service, *repository.Records) {
	t.Helper()
	recs := testutil.NewRecords(t, "live")
	s := NewService(recs.LiveLocation)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s, recs
}

func TestStartStatusStop(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	st, err := s.Status(ctx)
	if err != nil || st.State != StateStopped {
		t.Fatalf("expected stopped, got %+v err=%v", st, err)
	}

	loc, err := s.Start(ctx, walker, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if loc.Lat != DemoLat || loc.Lng != DemoLng || loc.WalkerID != "w1" || loc.Timestamp != 1700000000000 {
		t.Fatalf("unexpected location: %+v", loc)
	}

	st, err = s.Status(ctx)
	if err != nil || st.State != StateActive || !st.ValidCoords || st.Cell == "" || st.Location.WalkerID != "w1" {
		t.Fatalf("expected active status, got %+v err=%v", st, err)
	}

	if _, err := s.Start(ctx, walker, &Coords{Lat: 40.7128, Lng: -74.0060}); err != nil {
		t.Fatalf("restart: %v", err)
	}
	st, _ = s.Status(ctx)
	if st.Location.Lat != 40.7128 {
		t.Fatalf("start must overwrite the previous record: %+v", st.Location)
	}

	if err := s.Stop(ctx, walker); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := s.Stop(ctx, walker); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if st, _ := s.Status(ctx); st.State != StateStopped {
		t.Fatalf("expected stopped after stop, got %+v", st)
	}
}

func TestStart_Rejects(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	if _, err := s.Start(ctx, walker, &Coords{Lat: 123, Lng: 0}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := s.Start(ctx, models.User{ID: "o1", Role: models.RoleOwner}, nil); !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestStatus_UnreadableAndInvalidCoords(t *testing.T) {
	s, recs := newService(t)
	ctx := context.Background()

	if err := recs.Store.Put(ctx, repository.KeyLiveLocation, []byte(`{oops`), repository.AnyVersion); err != nil {
		t.Fatalf("put: %v", err)
	}
	if st, err := s.Status(ctx); err != nil || st.State != StateUnreadable {
		t.Fatalf("expected unreadable, got %+v err=%v", st, err)
	}

	if err := recs.Store.Put(ctx, repository.KeyLiveLocation, []byte(`{"lat":500,"lng":0,"walkerId":"w1","time":1}`), repository.AnyVersion); err != nil {
		t.Fatalf("put: %v", err)
	}
	st, err := s.Status(ctx)
	if err != nil || st.State != StateActive || st.ValidCoords || st.Cell != "" {
		t.Fatalf("expected active with invalid coords, got %+v err=%v", st, err)
	}
}
