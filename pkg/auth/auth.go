// Package auth resolves the caller of a request from a bearer token.
package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/shoppurs/pkg/apperr"
	"github.com/example/shoppurs/pkg/config"
	"github.com/example/shoppurs/pkg/models"
)

type Principal struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
}

func (p Principal) IsStaff() bool {
	return models.IsStaff(p.Role)
}

// Claims carries the principal in a signed token. The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenManager signs and validates HS256 tokens. Issuing happens outside
// this service; Issue exists for tooling and tests.
type TokenManager struct {
	secret []byte
	issuer string
}

func NewTokenManager(cfg config.AuthConfig) *TokenManager {
	return &TokenManager{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer}
}

func (tm *TokenManager) Issue(p Principal, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(p.UserID), 10),
			Issuer:    tm.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: p.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// Resolve validates a raw token and returns its principal.
func (tm *TokenManager) Resolve(token string) (*Principal, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if tm.issuer != "" {
		opts = append(opts, jwt.WithIssuer(tm.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}, opts...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "Invalid or expired token", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, apperr.New(apperr.KindUnauthenticated, "Invalid or expired token")
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, apperr.New(apperr.KindUnauthenticated, "Invalid token subject")
	}
	switch claims.Role {
	case models.RoleCustomer, models.RoleEmployee, models.RoleAdmin:
	default:
		return nil, apperr.New(apperr.KindUnauthenticated, "Invalid token role")
	}
	return &Principal{UserID: uint(id), Role: claims.Role}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("missing bearer token")
	}
	return strings.TrimSpace(token), nil
}
