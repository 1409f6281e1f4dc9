package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/metadata"

	"furamora/models"
)

// ErrNoCredentials means the call carried no authorization header at all.
var ErrNoCredentials = errors.New("missing authorization")

// sessionClaims is the serialized session: the public snapshot of the logged-in user.
// Tokens carry no expiry; a session ends when the client drops the token.
type sessionClaims struct {
	User models.PublicProfile `json:"user"`
	jwt.RegisteredClaims
}

// IssueSessionToken signs u's public snapshot with HS256.
func IssueSessionToken(secret string, u models.User, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("session secret is empty")
	}
	c := sessionClaims{
		User: u.Public(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  u.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// ParseFromMD extracts the Bearer session token from gRPC metadata and returns its user.
// ErrNoCredentials is returned when no authorization header is present.
func ParseFromMD(ctx context.Context, secret string) (*models.User, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, ErrNoCredentials
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return nil, ErrNoCredentials
	}
	parts := strings.SplitN(vals[0], " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errors.New("invalid authorization header")
	}
	return ParseSessionToken(strings.TrimSpace(parts[1]), secret)
}

// ParseSessionToken validates the signature and rebuilds the session user.
func ParseSessionToken(tokenStr, secret string) (*models.User, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}
	tok, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, err
	}
	c, _ := tok.Claims.(*sessionClaims)
	if c == nil || c.User.ID == "" || c.Subject != c.User.ID || !c.User.Role.Valid() {
		return nil, errors.New("invalid claims")
	}
	p := c.User
	return &models.User{
		ID:           p.ID,
		Name:         p.Name,
		Email:        p.Email,
		Role:         p.Role,
		Active:       models.Bool(p.Active),
		DistanceKm:   p.DistanceKm,
		Availability: p.Availability,
		Bio:          p.Bio,
		Phone:        p.Phone,
		Pets:         p.Pets,
	}, nil
}
