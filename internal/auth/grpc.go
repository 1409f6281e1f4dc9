package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/apex/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"furamora/internal/session"
)

// SessionHeader is the response header carrying a re-issued session token.
// An empty value tells the client to drop its token.
const SessionHeader = "session-token"

type holderKey struct{}

// WithSession stores the per-call session holder in context.
func WithSession(ctx context.Context, h *session.MemoryHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

// SessionFrom returns the per-call holder, or an anonymous one when none was attached.
func SessionFrom(ctx context.Context) *session.MemoryHolder {
	if h, ok := ctx.Value(holderKey{}).(*session.MemoryHolder); ok && h != nil {
		return h
	}
	return session.NewMemoryHolder(nil)
}

// HolderFromMD turns the caller's token into a session holder. A missing token gives an
// anonymous holder, an unverifiable one a corrupt holder; the role guard decides what to do.
func HolderFromMD(ctx context.Context, secret string) *session.MemoryHolder {
	u, err := ParseFromMD(ctx, secret)
	switch {
	case errors.Is(err, ErrNoCredentials):
		return session.NewMemoryHolder(nil)
	case err != nil:
		log.WithError(err).Debug("unreadable session token")
		return session.NewCorruptHolder()
	}
	return session.NewMemoryHolder(u)
}

// NewUnarySessionInterceptor attaches a session holder to every call and, when the
// handler changed the session, sends the re-issued token back in SessionHeader.
// Methods listed in ignoreCredentials start from an anonymous session.
func NewUnarySessionInterceptor(secret string, ignoreCredentials ...string) grpc.UnaryServerInterceptor {
	ignore := make(map[string]struct{}, len(ignoreCredentials))
	for _, m := range ignoreCredentials {
		ignore[strings.TrimSpace(m)] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		holder := session.NewMemoryHolder(nil)
		if _, ok := ignore[info.FullMethod]; !ok {
			holder = HolderFromMD(ctx, secret)
		}
		resp, err := handler(WithSession(ctx, holder), req)
		if holder.Changed() {
			sendToken(ctx, secret, holder)
		}
		return resp, err
	}
}

func sendToken(ctx context.Context, secret string, holder *session.MemoryHolder) {
	var tok string
	if u, _ := holder.Current(ctx); u != nil {
		var err error
		tok, err = IssueSessionToken(secret, *u, time.Now())
		if err != nil {
			log.WithError(err).Error("issue session token")
			return
		}
	}
	if err := grpc.SetHeader(ctx, metadata.Pairs(SessionHeader, tok)); err != nil {
		log.WithError(err).Debug("set session header")
	}
}
