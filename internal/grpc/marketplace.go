package grpcserver

import (
	"context"

	"furamora/internal/apperr"
	"furamora/internal/auth"
	"furamora/internal/booking"
	"furamora/internal/identity"
	"furamora/internal/livelocation"
	"furamora/internal/reports"
	"furamora/internal/visibility"
	"furamora/models"
)

// Server bundles the core services and implements MarketplaceServer.
// Every gated call reads the caller's session from the context and runs the role guard.
type Server struct {
	Identity   *identity.Service
	Bookings   *booking.Engine
	Reports    *reports.Service
	Live       *livelocation.Service
	Dashboards *visibility.Loader
}

var _ MarketplaceServer = (*Server)(nil)

// require runs the role guard against the caller's session.
func (s *Server) require(ctx context.Context, role models.Role) (*models.User, error) {
	return s.Identity.RequireRole(ctx, auth.SessionFrom(ctx), role)
}

func (s *Server) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	u, err := s.Identity.Register(ctx, auth.SessionFrom(ctx), identity.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return nil, toStatus("Register", err)
	}
	return &AuthResponse{User: u.Public(), Destination: identity.DestinationFor(u.Role)}, nil
}

func (s *Server) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, dest, err := s.Identity.Login(ctx, auth.SessionFrom(ctx), req.Email, req.Password, req.Role)
	if err != nil {
		return nil, toStatus("Login", err)
	}
	return &AuthResponse{User: u.Public(), Destination: dest}, nil
}

func (s *Server) Logout(ctx context.Context, _ *Empty) (*Empty, error) {
	if err := s.Identity.Logout(ctx, auth.SessionFrom(ctx)); err != nil {
		return nil, toStatus("Logout", err)
	}
	return &Empty{}, nil
}

func (s *Server) WhoAmI(ctx context.Context, _ *Empty) (*UserResponse, error) {
	me, err := s.require(ctx, "")
	if err != nil {
		return nil, toStatus("WhoAmI", err)
	}
	return &UserResponse{User: me.Public()}, nil
}

func (s *Server) SaveOwnerProfile(ctx context.Context, req *SaveOwnerProfileRequest) (*UserResponse, error) {
	u, err := s.Identity.SaveOwnerProfile(ctx, auth.SessionFrom(ctx), req.Name, req.Phone)
	if err != nil {
		return nil, toStatus("SaveOwnerProfile", err)
	}
	return &UserResponse{User: u.Public()}, nil
}

func (s *Server) SaveWalkerProfile(ctx context.Context, req *SaveWalkerProfileRequest) (*UserResponse, error) {
	u, err := s.Identity.SaveWalkerProfile(ctx, auth.SessionFrom(ctx), req.Name, req.Availability, req.Bio)
	if err != nil {
		return nil, toStatus("SaveWalkerProfile", err)
	}
	return &UserResponse{User: u.Public()}, nil
}

func (s *Server) AddPet(ctx context.Context, req *AddPetRequest) (*AddPetResponse, error) {
	pet, err := s.Identity.AddPet(ctx, auth.SessionFrom(ctx), identity.PetInput{Name: req.Name, Type: req.Type, Notes: req.Notes})
	if err != nil {
		return nil, toStatus("AddPet", err)
	}
	return &AddPetResponse{Pet: pet}, nil
}

func (s *Server) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*BookingResponse, error) {
	me, err := s.require(ctx, models.RoleOwner)
	if err != nil {
		return nil, toStatus("CreateBooking", err)
	}
	b, err := s.Bookings.Create(ctx, *me, booking.CreateInput{Service: req.Service, Date: req.Date, Time: req.Time})
	if err != nil {
		return nil, toStatus("CreateBooking", err)
	}
	return &BookingResponse{Booking: &b}, nil
}

func (s *Server) RespondToBooking(ctx context.Context, req *RespondToBookingRequest) (*BookingResponse, error) {
	me, err := s.require(ctx, models.RoleWalker)
	if err != nil {
		return nil, toStatus("RespondToBooking", err)
	}
	if req.BookingID == "" {
		return nil, toStatus("RespondToBooking", apperr.Validation("bookingId is required"))
	}
	st, ok := models.ParseBookingStatus(req.Status)
	if !ok {
		return nil, toStatus("RespondToBooking", apperr.Validation("status must be Accepted or Declined"))
	}
	b, err := s.Bookings.Respond(ctx, req.BookingID, st, *me)
	if err != nil {
		return nil, toStatus("RespondToBooking", err)
	}
	return &BookingResponse{Booking: b}, nil
}

func (s *Server) CompleteBooking(ctx context.Context, req *CompleteBookingRequest) (*BookingResponse, error) {
	me, err := s.require(ctx, models.RoleWalker)
	if err != nil {
		return nil, toStatus("CompleteBooking", err)
	}
	if req.BookingID == "" {
		return nil, toStatus("CompleteBooking", apperr.Validation("bookingId is required"))
	}
	b, err := s.Bookings.Complete(ctx, req.BookingID, *me)
	if err != nil {
		return nil, toStatus("CompleteBooking", err)
	}
	return &BookingResponse{Booking: b}, nil
}

func (s *Server) SubmitReport(ctx context.Context, req *SubmitReportRequest) (*SubmitReportResponse, error) {
	me, err := s.require(ctx, models.RoleWalker)
	if err != nil {
		return nil, toStatus("SubmitReport", err)
	}
	r, err := s.Reports.Submit(ctx, *me, req.Text)
	if err != nil {
		return nil, toStatus("SubmitReport", err)
	}
	return &SubmitReportResponse{Report: r}, nil
}

func (s *Server) StartLiveLocation(ctx context.Context, req *StartLiveLocationRequest) (*LiveLocationResponse, error) {
	me, err := s.require(ctx, models.RoleWalker)
	if err != nil {
		return nil, toStatus("StartLiveLocation", err)
	}
	var coords *livelocation.Coords
	switch {
	case req.Lat != nil && req.Lng != nil:
		coords = &livelocation.Coords{Lat: *req.Lat, Lng: *req.Lng}
	case req.Lat != nil || req.Lng != nil:
		return nil, toStatus("StartLiveLocation", apperr.Validation("lat and lng must be given together"))
	}
	loc, err := s.Live.Start(ctx, *me, coords)
	if err != nil {
		return nil, toStatus("StartLiveLocation", err)
	}
	return &LiveLocationResponse{Location: loc}, nil
}

func (s *Server) StopLiveLocation(ctx context.Context, _ *Empty) (*Empty, error) {
	me, err := s.require(ctx, models.RoleWalker)
	if err != nil {
		return nil, toStatus("StopLiveLocation", err)
	}
	if err := s.Live.Stop(ctx, *me); err != nil {
		return nil, toStatus("StopLiveLocation", err)
	}
	return &Empty{}, nil
}

func (s *Server) LiveLocationStatus(ctx context.Context, _ *Empty) (*LiveLocationStatusResponse, error) {
	if _, err := s.require(ctx, ""); err != nil {
		return nil, toStatus("LiveLocationStatus", err)
	}
	st, err := s.Live.Status(ctx)
	if err != nil {
		return nil, toStatus("LiveLocationStatus", err)
	}
	return &LiveLocationStatusResponse{Status: st}, nil
}

func (s *Server) OwnerDashboard(ctx context.Context, req *OwnerDashboardRequest) (*visibility.OwnerDashboard, error) {
	me, err := s.require(ctx, models.RoleOwner)
	if err != nil {
		return nil, toStatus("OwnerDashboard", err)
	}
	d, err := s.Dashboards.Owner(ctx, *me, req.MaxDistanceKm)
	if err != nil {
		return nil, toStatus("OwnerDashboard", err)
	}
	return &d, nil
}

func (s *Server) WalkerDashboard(ctx context.Context, _ *Empty) (*visibility.WalkerDashboard, error) {
	me, err := s.require(ctx, models.RoleWalker)
	if err != nil {
		return nil, toStatus("WalkerDashboard", err)
	}
	d, err := s.Dashboards.Walker(ctx, *me)
	if err != nil {
		return nil, toStatus("WalkerDashboard", err)
	}
	return &d, nil
}

func (s *Server) AdminDashboard(ctx context.Context, req *AdminDashboardRequest) (*visibility.AdminDashboard, error) {
	if _, err := s.require(ctx, models.RoleAdmin); err != nil {
		return nil, toStatus("AdminDashboard", err)
	}
	d, err := s.Dashboards.Admin(ctx, req.Role, req.Status)
	if err != nil {
		return nil, toStatus("AdminDashboard", err)
	}
	return &d, nil
}
