package identity

import (
	"context"
	"errors"
	"sync"
	"testing"

	"furamora/internal/apperr"
	"furamora/internal/mirror"
	"furamora/internal/session"
	"furamora/internal/testutil"
	"furamora/models"
	"furamora/repository"
)

type recordingSink struct {
	mu       sync.Mutex
	profiles map[string]models.PublicProfile
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) UpsertUserProfile(_ context.Context, id string, p models.PublicProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profiles == nil {
		s.profiles = map[string]models.PublicProfile{}
	}
	s.profiles[id] = p
	return nil
}

func (s *recordingSink) get(id string) (models.PublicProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	return p, ok
}

type fixture struct {
	svc  *Service
	recs *repository.Records
	sink *recordingSink
	disp *mirror.Dispatcher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	recs := testutil.NewRecords(t, "identity")
	sink := &recordingSink{}
	disp := mirror.NewDispatcher(sink, 0, nil)
	svc := NewService(recs.Users, disp, nil, models.DefaultAdminSeed)
	svc.newID = testutil.Sequence("u")
	svc.pickDistance = func() float64 { return 3 }
	return fixture{svc: svc, recs: recs, sink: sink, disp: disp}
}

func TestEnsureAdminSeed_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		users, err := f.svc.EnsureAdminSeed(ctx)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		if len(users) != 1 || users[0].ID != "admin-1" || users[0].Role != models.RoleAdmin {
			t.Fatalf("unexpected users after seed: %+v", users)
		}
	}
}

func TestRegister_CreatesAndLogsIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := session.NewMemoryHolder(nil)

	u, err := f.svc.Register(ctx, sess, RegisterInput{Name: " Ann ", Email: "Ann@Example.com ", Password: "pw", Role: "owner"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "ann@example.com" || u.Name != "Ann" || !u.IsActive() || u.DistanceKm != nil {
		t.Fatalf("unexpected user: %+v", u)
	}
	cur, _ := sess.Current(ctx)
	if cur == nil || cur.ID != u.ID {
		t.Fatalf("session not established: %+v", cur)
	}

	w, err := f.svc.Register(ctx, sess, RegisterInput{Name: "Sam", Email: "sam@x.com", Password: "pw", Role: "walker"})
	if err != nil {
		t.Fatalf("register walker: %v", err)
	}
	if w.DistanceKm == nil || *w.DistanceKm != 3 {
		t.Fatalf("walker distance not set: %+v", w.DistanceKm)
	}

	f.disp.Wait()
	if p, ok := f.sink.get(u.ID); !ok || p.Email != "ann@example.com" {
		t.Fatalf("owner profile not mirrored: %+v", p)
	}
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []RegisterInput{
		{Name: "", Email: "a@x.com", Password: "pw", Role: "owner"},
		{Name: "A", Email: "  ", Password: "pw", Role: "owner"},
		{Name: "A", Email: "a@x.com", Password: "", Role: "owner"},
		{Name: "A", Email: "a@x.com", Password: "pw", Role: ""},
		{Name: "A", Email: "a@x.com", Password: "pw", Role: "admin"},
		{Name: "A", Email: "a@x.com", Password: "pw", Role: "groomer"},
		{Name: "A", Email: "ADMIN@furamora.com", Password: "pw", Role: "owner"},
	}
	for _, in := range cases {
		sess := session.NewMemoryHolder(nil)
		if _, err := f.svc.Register(ctx, sess, in); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("input %+v: expected validation error, got %v", in, err)
		}
		if sess.Changed() {
			t.Fatalf("input %+v: session must be untouched", in)
		}
	}
}

func TestRegister_SameEmailReplacesInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.svc.Register(ctx, session.NewMemoryHolder(nil), RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "pw", Role: "owner"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	second, err := f.svc.Register(ctx, session.NewMemoryHolder(nil), RegisterInput{Name: "Annie", Email: "ANN@x.com", Password: "new", Role: "walker"})
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("id changed on re-register: %s -> %s", first.ID, second.ID)
	}
	users, _ := f.svc.EnsureAdminSeed(ctx)
	count := 0
	for _, u := range users {
		if u.Email == "ann@x.com" {
			count++
			if u.Role != models.RoleWalker || u.Password != "new" {
				t.Fatalf("record not replaced: %+v", u)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one record per email, got %d", count)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Register(ctx, session.NewMemoryHolder(nil), RegisterInput{Name: "Sam", Email: "sam@x.com", Password: "pw", Role: "walker"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	sess := session.NewMemoryHolder(nil)
	u, dest, err := f.svc.Login(ctx, sess, " SAM@x.com", "pw", "walker")
	if err != nil || dest != DestinationWalker || u.Email != "sam@x.com" {
		t.Fatalf("login: u=%+v dest=%s err=%v", u, dest, err)
	}

	// the admin seed exists on a fresh store
	if _, dest, err := f.svc.Login(ctx, session.NewMemoryHolder(nil), "admin@furamora.com", "admin123", "admin"); err != nil || dest != DestinationAdmin {
		t.Fatalf("admin login: dest=%s err=%v", dest, err)
	}

	bad := []struct{ email, pw, role string }{
		{"sam@x.com", "nope", "walker"},
		{"sam@x.com", "pw", "owner"},
		{"nobody@x.com", "pw", "walker"},
	}
	for _, b := range bad {
		s := session.NewMemoryHolder(nil)
		_, dest, err := f.svc.Login(ctx, s, b.email, b.pw, b.role)
		if !errors.Is(err, apperr.ErrAuth) || dest != DestinationLogin {
			t.Fatalf("%+v: expected auth error, got dest=%s err=%v", b, dest, err)
		}
		if apperr.Message(err) != "invalid email, password or role" {
			t.Fatalf("auth error must not reveal the failing field: %q", apperr.Message(err))
		}
		if s.Changed() {
			t.Fatalf("failed login must not touch the session")
		}
	}

	if _, _, err := f.svc.Login(ctx, session.NewMemoryHolder(nil), "", "pw", "walker"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogin_InactiveUserRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := []models.User{{ID: "x", Email: "off@x.com", Password: "pw", Role: models.RoleOwner, Active: models.Bool(false)}}
	if err := f.recs.Users.Save(ctx, repository.Snapshot[models.User]{Items: users}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, _, err := f.svc.Login(ctx, session.NewMemoryHolder(nil), "off@x.com", "pw", "owner"); !errors.Is(err, apperr.ErrAuth) {
		t.Fatalf("expected auth error for inactive user, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	anon := session.NewMemoryHolder(nil)
	_, err := f.svc.RequireRole(ctx, anon, models.RoleOwner)
	if !errors.Is(err, apperr.ErrSession) || apperr.RedirectOf(err) != apperr.RedirectLogin {
		t.Fatalf("expected session error, got %v", err)
	}

	corrupt := session.NewCorruptHolder()
	if _, err := f.svc.RequireRole(ctx, corrupt, models.RoleOwner); !errors.Is(err, apperr.ErrSession) {
		t.Fatalf("expected session error for corrupt session, got %v", err)
	}
	if u, err := corrupt.Current(ctx); err != nil || u != nil {
		t.Fatalf("corrupt session must be cleared, got %+v err=%v", u, err)
	}

	walker := session.NewMemoryHolder(&models.User{ID: "w1", Role: models.RoleWalker})
	_, err = f.svc.RequireRole(ctx, walker, models.RoleOwner)
	if !errors.Is(err, apperr.ErrPermission) || apperr.RedirectOf(err) != apperr.RedirectLogin {
		t.Fatalf("expected permission error, got %v", err)
	}
	if walker.Changed() {
		t.Fatalf("role mismatch must leave the session in place")
	}

	u, err := f.svc.RequireRole(ctx, walker, "")
	if err != nil || u.ID != "w1" {
		t.Fatalf("any-role guard: %+v err=%v", u, err)
	}
}

func TestRequireRole_StoreBackedCorruptSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := session.NewStoreHolder(f.recs.Session)
	if err := f.recs.Store.Put(ctx, repository.KeySession, []byte(`not json`), repository.AnyVersion); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := f.svc.RequireRole(ctx, h, models.RoleWalker); !errors.Is(err, apperr.ErrSession) {
		t.Fatalf("expected session error, got %v", err)
	}
	if payload, _, err := f.recs.Store.Get(ctx, repository.KeySession); err != nil || payload != nil {
		t.Fatalf("session record should have been removed, got %q err=%v", payload, err)
	}
}

func TestProfilesAndPets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := session.NewMemoryHolder(nil)
	owner, err := f.svc.Register(ctx, sess, RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "pw", Role: "owner"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := f.svc.SaveOwnerProfile(ctx, sess, "Ann B", ""); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for missing phone, got %v", err)
	}
	f.disp.Wait()
	updated, err := f.svc.SaveOwnerProfile(ctx, sess, "Ann B", "0123")
	f.disp.Wait()
	if err != nil || updated.Name != "Ann B" || updated.Phone != "0123" || updated.ID != owner.ID {
		t.Fatalf("save owner profile: %+v err=%v", updated, err)
	}
	cur, _ := sess.Current(ctx)
	if cur.Name != "Ann B" {
		t.Fatalf("session snapshot not refreshed: %+v", cur)
	}

	if _, err := f.svc.AddPet(ctx, sess, PetInput{Name: "Rex"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for missing type, got %v", err)
	}
	pet, err := f.svc.AddPet(ctx, sess, PetInput{Name: "Rex", Type: "Dog", Notes: "pulls"})
	if err != nil || pet.ID == "" {
		t.Fatalf("add pet: %+v err=%v", pet, err)
	}

	f.disp.Wait()
	p, ok := f.sink.get(owner.ID)
	if !ok || len(p.Pets) != 1 || p.Pets[0].Name != "Rex" || p.Phone != "0123" {
		t.Fatalf("mirror did not receive latest profile: %+v", p)
	}

	if _, err := f.svc.SaveWalkerProfile(ctx, sess, "Ann", "", ""); !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("owner must not edit a walker profile, got %v", err)
	}

	wsess := session.NewMemoryHolder(nil)
	if _, err := f.svc.Register(ctx, wsess, RegisterInput{Name: "Sam", Email: "sam@x.com", Password: "pw", Role: "walker"}); err != nil {
		t.Fatalf("register walker: %v", err)
	}
	if _, err := f.svc.SaveWalkerProfile(ctx, wsess, " ", "weekends", ""); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for empty walker name, got %v", err)
	}
	w, err := f.svc.SaveWalkerProfile(ctx, wsess, "Sam W", "weekends", "loves dogs")
	if err != nil || w.Availability != "weekends" || w.Bio != "loves dogs" || w.DistanceKm == nil {
		t.Fatalf("save walker profile: %+v err=%v", w, err)
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := session.NewMemoryHolder(&models.User{ID: "u1", Role: models.RoleOwner})
	if err := f.svc.Logout(ctx, sess); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.svc.RequireRole(ctx, sess, models.RoleOwner); !errors.Is(err, apperr.ErrSession) {
		t.Fatalf("expected session error after logout, got %v", err)
	}
}
