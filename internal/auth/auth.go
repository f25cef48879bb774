package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// SpecialChars are the characters accepted as "special" in usernames and passwords.
const SpecialChars = `!@#$%^&*(),.?":{}|<>`

var (
	// ErrInvalidToken is returned for tokens that fail signature, method or expiry checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidCredentials is returned when a password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError is a user-facing registration rule violation.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// ValidateRegistration checks the username and password rules.
func ValidateRegistration(username, password string) error {
	if !strings.ContainsAny(username, "0123456789") {
		return &ValidationError{Message: "Username must include at least one number"}
	}
	if !strings.ContainsAny(username, SpecialChars) {
		return &ValidationError{Message: "Username must include at least one special character"}
	}
	if !strings.ContainsAny(password, SpecialChars) {
		return &ValidationError{Message: "Password must contain at least one special character"}
	}
	return nil
}

// HashPassword hashes with bcrypt at cost 10.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// CheckPassword compares a bcrypt hash with a candidate password.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Claims identify the user a token was issued to.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer; ttl <= 0 defaults to one hour.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token for userID.
func (i *Issuer) Issue(userID string) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Verify returns the user id carried by a valid token.
func (i *Issuer) Verify(token string) (string, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

type ctxKey struct{}

// WithUserID stores the authenticated user id in ctx.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// UserID returns the authenticated user id stored by Middleware.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// TokenFromHeader reads the Authorization header; a "Bearer " prefix is optional.
func TokenFromHeader(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}

// Middleware rejects requests without a valid token. deny writes the
// rejection; it receives 403 and the user-facing message.
func (i *Issuer) Middleware(deny func(w http.ResponseWriter, status int, msg string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := TokenFromHeader(r)
			if tok == "" {
				deny(w, http.StatusForbidden, "No token provided")
				return
			}
			id, err := i.Verify(tok)
			if err != nil {
				deny(w, http.StatusForbidden, "Invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}
