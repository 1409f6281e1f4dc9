package grpcserver

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"furamora/internal/app"
	"furamora/internal/auth"
	"furamora/internal/config"
	"furamora/internal/mirror"
	"furamora/internal/session"
	"furamora/internal/testutil"
	"furamora/models"
)

const testSecret = "test-secret"

func newCore(t *testing.T) *app.Core {
	t.Helper()
	c := app.New(testutil.NewRecords(t, "grpc"), mirror.NopSink{}, 0, models.DefaultAdminSeed, nil)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newServer(c *app.Core) *Server {
	return &Server{Identity: c.Identity, Bookings: c.Bookings, Reports: c.Reports, Live: c.Live, Dashboards: c.Dashboards}
}

// sessionCtx attaches a per-call session holder the way the interceptor does.
func sessionCtx(u *models.User) (context.Context, *session.MemoryHolder) {
	h := session.NewMemoryHolder(u)
	return auth.WithSession(context.Background(), h), h
}

func TestServer_DirectCalls(t *testing.T) {
	s := newServer(newCore(t))

	ctx, h := sessionCtx(nil)
	resp, err := s.Register(ctx, &RegisterRequest{Name: "Olive", Email: "olive@x.com", Password: "pw", Role: "owner"})
	if err != nil || resp.Destination != "owner" || !h.Changed() {
		t.Fatalf("register: %+v err=%v", resp, err)
	}
	owner, _ := h.Current(ctx)

	if _, err := s.CreateBooking(ctx, &CreateBookingRequest{Date: "2024-01-01"}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	b, err := s.CreateBooking(ctx, &CreateBookingRequest{Date: "2024-01-01", Time: "09:00"})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	wctx, wh := sessionCtx(nil)
	if _, err := s.Register(wctx, &RegisterRequest{Name: "Will", Email: "will@x.com", Password: "pw", Role: "walker"}); err != nil {
		t.Fatalf("register walker: %v", err)
	}
	walker, _ := wh.Current(wctx)

	// an owner cannot respond to bookings
	octx, _ := sessionCtx(owner)
	_, err = s.RespondToBooking(octx, &RespondToBookingRequest{BookingID: b.Booking.ID, Status: "Accepted"})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
	if info := ErrorInfoOf(err); info == nil || info.Reason != "permission" || info.Metadata["redirect"] != "login" {
		t.Fatalf("expected permission ErrorInfo with redirect, got %+v", info)
	}

	wctx, _ = sessionCtx(walker)
	if _, err := s.SubmitReport(wctx, &SubmitReportRequest{Text: "walk"}); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition before accepting, got %v", err)
	}
	acc, err := s.RespondToBooking(wctx, &RespondToBookingRequest{BookingID: b.Booking.ID, Status: "accepted"})
	if err != nil || acc.Booking.Status != models.BookingAccepted {
		t.Fatalf("accept: %+v err=%v", acc, err)
	}
	missing, err := s.RespondToBooking(wctx, &RespondToBookingRequest{BookingID: "nope", Status: "Accepted"})
	if err != nil || missing.Booking != nil {
		t.Fatalf("unknown booking should be a silent no-op: %+v err=%v", missing, err)
	}
	rep, err := s.SubmitReport(wctx, &SubmitReportRequest{Text: "good dog"})
	if err != nil || rep.Report.BookingID != b.Booking.ID {
		t.Fatalf("report: %+v err=%v", rep, err)
	}

	od, err := s.OwnerDashboard(octx, &OwnerDashboardRequest{})
	if err != nil || len(od.Bookings) != 1 || len(od.Reports) != 1 || len(od.Walkers) != 1 {
		t.Fatalf("owner dashboard: %+v err=%v", od, err)
	}

	if _, err := s.AdminDashboard(octx, &AdminDashboardRequest{}); status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied for owner on admin dashboard, got %v", err)
	}

	anon, _ := sessionCtx(nil)
	if _, err := s.WhoAmI(anon, &Empty{}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	if _, err := s.StartLiveLocation(wctx, &StartLiveLocationRequest{Lat: new(float64)}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for half coordinates, got %v", err)
	}
	if _, err := s.StartLiveLocation(wctx, &StartLiveLocationRequest{}); err != nil {
		t.Fatalf("start live: %v", err)
	}
	st, err := s.LiveLocationStatus(octx, &Empty{})
	if err != nil || st.Status.State != "active" {
		t.Fatalf("live status: %+v err=%v", st, err)
	}
}

func dialBufconn(t *testing.T, c *app.Core) *grpc.ClientConn {
	t.Helper()
	cfg := &config.Config{Auth: config.AuthConfig{SessionSecret: testSecret}}
	srv, _ := NewGRPCServer(cfg, newServer(c))
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestMarketplace_EndToEnd(t *testing.T) {
	conn := dialBufconn(t, newCore(t))
	client := NewMarketplaceClient(conn)
	ctx := context.Background()

	// register an owner and capture the issued session token
	var hdr metadata.MD
	var reg AuthResponse
	err := client.Invoke(ctx, "Register", &RegisterRequest{Name: "Olive", Email: "olive@x.com", Password: "pw", Role: "owner"}, &reg, grpc.Header(&hdr))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	toks := hdr.Get(auth.SessionHeader)
	if len(toks) != 1 || toks[0] == "" {
		t.Fatalf("expected a session token header, got %v", hdr)
	}
	ownerCtx := metadata.NewOutgoingContext(ctx, metadata.Pairs("authorization", "Bearer "+toks[0]))

	var who UserResponse
	if err := client.Invoke(ownerCtx, "WhoAmI", &Empty{}, &who); err != nil || who.User.Email != "olive@x.com" {
		t.Fatalf("whoami: %+v err=%v", who, err)
	}

	// profile save re-issues a token carrying the new name
	var prof UserResponse
	hdr = nil
	if err := client.Invoke(ownerCtx, "SaveOwnerProfile", &SaveOwnerProfileRequest{Name: "Olive B", Phone: "555"}, &prof, grpc.Header(&hdr)); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if toks := hdr.Get(auth.SessionHeader); len(toks) != 1 || toks[0] == "" {
		t.Fatalf("expected refreshed token, got %v", hdr)
	}

	var bk BookingResponse
	if err := client.Invoke(ownerCtx, "CreateBooking", &CreateBookingRequest{Date: "2024-01-02", Time: "10:00"}, &bk); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if bk.Booking == nil || bk.Booking.Status != models.BookingPending {
		t.Fatalf("unexpected booking: %+v", bk.Booking)
	}

	// a forged token is an unreadable session
	bad := metadata.NewOutgoingContext(ctx, metadata.Pairs("authorization", "Bearer forged"))
	err = client.Invoke(bad, "OwnerDashboard", &OwnerDashboardRequest{}, &struct{}{})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
	if info := ErrorInfoOf(err); info == nil || info.Reason != "session" {
		t.Fatalf("expected session ErrorInfo, got %+v", info)
	}

	// failed login leaves no token
	hdr = nil
	err = client.Invoke(ctx, "Login", &LoginRequest{Email: "olive@x.com", Password: "nope", Role: "owner"}, &AuthResponse{}, grpc.Header(&hdr))
	if status.Code(err) != codes.Unauthenticated || len(hdr.Get(auth.SessionHeader)) != 0 {
		t.Fatalf("expected Unauthenticated without token, got %v hdr=%v", err, hdr)
	}

	// logout tells the client to drop its token
	hdr = nil
	if err := client.Invoke(ownerCtx, "Logout", &Empty{}, &Empty{}, grpc.Header(&hdr)); err != nil {
		t.Fatalf("logout: %v", err)
	}
	for _, tok := range hdr.Get(auth.SessionHeader) {
		if tok != "" {
			t.Fatalf("logout must not hand out a token, got %v", hdr)
		}
	}

	hc := healthpb.NewHealthClient(conn)
	res, err := hc.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil || res.Status != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("health: %+v err=%v", res, err)
	}
}
