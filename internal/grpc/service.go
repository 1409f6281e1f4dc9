package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"furamora/internal/visibility"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "furamora.v1.Marketplace"

// FullMethod returns "/furamora.v1.Marketplace/<name>".
func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

// MarketplaceServer is the server API of the marketplace service.
type MarketplaceServer interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	Logout(context.Context, *Empty) (*Empty, error)
	WhoAmI(context.Context, *Empty) (*UserResponse, error)
	SaveOwnerProfile(context.Context, *SaveOwnerProfileRequest) (*UserResponse, error)
	SaveWalkerProfile(context.Context, *SaveWalkerProfileRequest) (*UserResponse, error)
	AddPet(context.Context, *AddPetRequest) (*AddPetResponse, error)
	CreateBooking(context.Context, *CreateBookingRequest) (*BookingResponse, error)
	RespondToBooking(context.Context, *RespondToBookingRequest) (*BookingResponse, error)
	CompleteBooking(context.Context, *CompleteBookingRequest) (*BookingResponse, error)
	SubmitReport(context.Context, *SubmitReportRequest) (*SubmitReportResponse, error)
	StartLiveLocation(context.Context, *StartLiveLocationRequest) (*LiveLocationResponse, error)
	StopLiveLocation(context.Context, *Empty) (*Empty, error)
	LiveLocationStatus(context.Context, *Empty) (*LiveLocationStatusResponse, error)
	OwnerDashboard(context.Context, *OwnerDashboardRequest) (*visibility.OwnerDashboard, error)
	WalkerDashboard(context.Context, *Empty) (*visibility.WalkerDashboard, error)
	AdminDashboard(context.Context, *AdminDashboardRequest) (*visibility.AdminDashboard, error)
}

// unary builds a method descriptor that decodes Req and dispatches to call,
// running the server's interceptor chain when one is installed.
func unary[Req any, Resp any](name string, call func(MarketplaceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MarketplaceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(MarketplaceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// MarketplaceServiceDesc describes the service for grpc.Server.RegisterService.
var MarketplaceServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MarketplaceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", MarketplaceServer.Register),
		unary("Login", MarketplaceServer.Login),
		unary("Logout", MarketplaceServer.Logout),
		unary("WhoAmI", MarketplaceServer.WhoAmI),
		unary("SaveOwnerProfile", MarketplaceServer.SaveOwnerProfile),
		unary("SaveWalkerProfile", MarketplaceServer.SaveWalkerProfile),
		unary("AddPet", MarketplaceServer.AddPet),
		unary("CreateBooking", MarketplaceServer.CreateBooking),
		unary("RespondToBooking", MarketplaceServer.RespondToBooking),
		unary("CompleteBooking", MarketplaceServer.CompleteBooking),
		unary("SubmitReport", MarketplaceServer.SubmitReport),
		unary("StartLiveLocation", MarketplaceServer.StartLiveLocation),
		unary("StopLiveLocation", MarketplaceServer.StopLiveLocation),
		unary("LiveLocationStatus", MarketplaceServer.LiveLocationStatus),
		unary("OwnerDashboard", MarketplaceServer.OwnerDashboard),
		unary("WalkerDashboard", MarketplaceServer.WalkerDashboard),
		unary("AdminDashboard", MarketplaceServer.AdminDashboard),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "furamora/marketplace",
}

// RegisterMarketplaceServer registers srv on s.
func RegisterMarketplaceServer(s grpc.ServiceRegistrar, srv MarketplaceServer) {
	s.RegisterService(&MarketplaceServiceDesc, srv)
}

// MarketplaceClient calls the service over a JSON-codec connection.
type MarketplaceClient struct {
	cc grpc.ClientConnInterface
}

func NewMarketplaceClient(cc grpc.ClientConnInterface) *MarketplaceClient {
	return &MarketplaceClient{cc: cc}
}

// Invoke calls method with in and decodes the reply into out.
func (c *MarketplaceClient) Invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, FullMethod(method), in, out, opts...)
}
