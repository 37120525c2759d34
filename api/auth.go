/*
auth.go - Session tokens and authorization middleware

PURPOSE:
  The engine takes an explicit hotel.Session on every call. Over HTTP that
  session travels as a signed bearer token: a customer token carries the
  username, an admin token carries the admin flag.

FLOW:
  1. POST /api/sessions or /api/admin/sessions validates credentials
  2. Tokens.Issue signs a JWT (HS256) with a fresh jti
  3. Authenticate parses the Authorization header and stores the Session
     in the request context
  4. RequireCustomer / RequireAdmin gate the routes that need one

SEE ALSO:
  - server.go: Which routes carry which middleware
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/warp/hotel-engine/hotel"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const (
	roleCustomer = "customer"
	roleAdmin    = "admin"
	issuer       = "hotel-engine"
)

// Claims is the token payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for s and its expiry.
func (t *Tokens) Issue(s hotel.Session) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)

	role := roleCustomer
	if s.Admin {
		role = roleAdmin
	}
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   s.Username,
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies a token and returns the session it carries.
func (t *Tokens) Parse(tokenString string) (hotel.Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return hotel.Session{}, ErrExpiredToken
		}
		return hotel.Session{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return hotel.Session{}, ErrInvalidToken
	}
	switch claims.Role {
	case roleAdmin:
		return hotel.Session{Admin: true}, nil
	case roleCustomer:
		if claims.Subject == "" {
			return hotel.Session{}, ErrInvalidToken
		}
		return hotel.Session{Username: claims.Subject}, nil
	default:
		return hotel.Session{}, ErrInvalidToken
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

type sessionKey struct{}

// SessionFrom returns the session stored by Authenticate. Anonymous requests
// get the zero Session.
func SessionFrom(ctx context.Context) hotel.Session {
	s, _ := ctx.Value(sessionKey{}).(hotel.Session)
	return s
}

// Authenticate attaches the bearer token's session to the request. A request
// without a token passes through anonymous; a bad token is rejected.
func (t *Tokens) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			writeError(w, http.StatusUnauthorized, "Authorization header must start with 'Bearer '", nil)
			return
		}

		s, err := t.Parse(strings.TrimPrefix(header, prefix))
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, ErrExpiredToken) {
				message = "Token has expired"
			}
			writeError(w, http.StatusUnauthorized, message, nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
	})
}

// RequireCustomer rejects requests without a customer session.
func RequireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFrom(r.Context()).IsCustomer() {
			writeRejection(w, hotel.ErrNotLoggedIn)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests without an admin session.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := SessionFrom(r.Context())
		if !s.Admin {
			status := http.StatusForbidden
			if !s.IsCustomer() {
				status = http.StatusUnauthorized
			}
			writeError(w, status, "Admin access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
