package grpcserver

import (
	"github.com/apex/log"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"furamora/internal/apperr"
)

// ErrorDomain tags ErrorInfo details produced by this service.
const ErrorDomain = "furamora"

var kindCodes = map[apperr.Kind]codes.Code{
	apperr.KindValidation:        codes.InvalidArgument,
	apperr.KindAuth:              codes.Unauthenticated,
	apperr.KindSession:           codes.Unauthenticated,
	apperr.KindPermission:        codes.PermissionDenied,
	apperr.KindNoEligibleBooking: codes.FailedPrecondition,
	apperr.KindConflict:          codes.Aborted,
	apperr.KindInvalidTransition: codes.FailedPrecondition,
	apperr.KindNotFound:          codes.NotFound,
}

// toStatus converts a core outcome into a gRPC status. Domain errors carry an ErrorInfo
// detail with the kind as reason and the redirect destination, if any, in metadata.
func toStatus(method string, err error) error {
	if err == nil {
		return nil
	}
	kind := apperr.KindOf(err)
	code, ok := kindCodes[kind]
	if !ok {
		log.WithField("method", method).WithError(err).Error("internal error")
		return status.Error(codes.Internal, "internal error")
	}
	st := status.New(code, apperr.Message(err))
	info := &errdetails.ErrorInfo{Reason: string(kind), Domain: ErrorDomain}
	if r := apperr.RedirectOf(err); r != apperr.RedirectNone {
		info.Metadata = map[string]string{"redirect": string(r)}
	}
	if withDetails, derr := st.WithDetails(info); derr == nil {
		st = withDetails
	}
	return st.Err()
}

// ErrorInfoOf returns the ErrorInfo detail of a status error, if present.
func ErrorInfoOf(err error) *errdetails.ErrorInfo {
	st, ok := status.FromError(err)
	if !ok {
		return nil
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info
		}
	}
	return nil
}
