// Package token mints and verifies the signed bearer tokens that represent
// sessions. Tokens are stateless: verification never touches the store.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"horizon/internal/apperr"
)

// DefaultTTL is the session lifetime used when config supplies none.
const DefaultTTL = 5 * time.Hour

// Claims is the compact claim set carried by a session token.
type Claims struct {
	UserID string `json:"uid"`
	OrgID  string `json:"org,omitempty"`
	jwt.RegisteredClaims
}

// Service signs and verifies session tokens with a process-wide symmetric
// secret loaded once at startup.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService builds a token service. The secret is required; rotation is not
// supported.
func NewService(secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token signing secret not provided")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{secret: []byte(secret), ttl: ttl}, nil
}

// Mint produces a signed token for a principal, optionally scoped to an
// active organization.
func (s *Service) Mint(userID, orgID primitive.ObjectID) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	if !orgID.IsZero() {
		claims.OrgID = orgID.Hex()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses a token and checks signature and expiry. It does not confirm
// the principal or organization still exist; the request context resolver
// does that.
func (s *Service) Verify(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.KindTokenExpired, "session expired", err)
		}
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "invalid session token", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid session token")
	}
	if claims.ExpiresAt == nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "session token has no expiry")
	}
	return claims, nil
}

// SubjectIDs decodes the claim ids. OrgID is zero when the token carries no
// active organization.
func (c *Claims) SubjectIDs() (userID, orgID primitive.ObjectID, err error) {
	userID, err = primitive.ObjectIDFromHex(c.UserID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID,
			apperr.Wrap(apperr.KindUnauthenticated, "invalid session token", err)
	}
	if c.OrgID != "" {
		orgID, err = primitive.ObjectIDFromHex(c.OrgID)
		if err != nil {
			return primitive.NilObjectID, primitive.NilObjectID,
				apperr.Wrap(apperr.KindUnauthenticated, "invalid session token", err)
		}
	}
	return userID, orgID, nil
}
