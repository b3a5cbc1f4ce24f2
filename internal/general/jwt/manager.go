package jwt

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/user"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoAuthHeader       = errors.New("authorization header missing")
	ErrEmptyToken         = errors.New("bearer token missing")
	ErrInvalidSigningAlgo = errors.New("unexpected signing method")
	ErrRoleForbidden      = errors.New("role not allowed")
)

// Manager signs and verifies the HS256 access tokens every surface of the
// service accepts: the HTTP middleware, the hub's authenticate event and the
// dev token mint.
type Manager struct {
	secret    []byte
	accessTTL time.Duration
}

// NewManager builds a token manager. An empty secret is a deployment error,
// not a recoverable condition.
func NewManager(secret string, accessTTL time.Duration) *Manager {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		panic("jwt: empty secret key")
	}

	return &Manager{
		secret:    []byte(trimmed),
		accessTTL: accessTTL,
	}
}

// IssueUserToken returns a signed access token for one identity.
func (m *Manager) IssueUserToken(ident user.Identity) (string, *Claims, error) {
	if err := ident.Validate(); err != nil {
		return "", nil, err
	}

	claims := NewUserClaims(ident, m.accessTTL)
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ParseAndValidate verifies the signature and the registered claims. Only
// HS256 is accepted; tokens signed any other way fail before the keyfunc
// hands out the secret.
func (m *Manager) ParseAndValidate(tokenString string) (*jwtlib.Token, *Claims, error) {
	parser := jwtlib.NewParser(jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, m.keyFor)
	if err != nil {
		return nil, nil, err
	}
	if !token.Valid {
		return nil, nil, errors.New("invalid token")
	}
	return token, claims, nil
}

func (m *Manager) keyFor(t *jwtlib.Token) (any, error) {
	if t.Method != jwtlib.SigningMethodHS256 {
		return nil, ErrInvalidSigningAlgo
	}
	return m.secret, nil
}

// FromAuthorization reads "Authorization: Bearer <token>". Falls back to the
// Authorization query parameter for clients that cannot set headers; there a
// bare token is accepted too.
func FromAuthorization(r *http.Request) (string, error) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, nil
	}

	if raw := r.URL.Query().Get("Authorization"); raw != "" {
		if token, ok := bearerToken(raw); ok {
			return token, nil
		}
		return raw, nil
	}

	return "", ErrNoAuthHeader
}

// bearerToken strips the "Bearer" scheme, case-insensitively.
func bearerToken(raw string) (string, bool) {
	scheme, rest, found := strings.Cut(strings.TrimSpace(raw), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// RoleAllowed asserts the claims' role is one of the allowed.
func RoleAllowed(cl *Claims, allowed ...user.Role) error {
	if slices.Contains(allowed, cl.Role) {
		return nil
	}
	return ErrRoleForbidden
}

// Context wiring (used by middleware)
type ctxKey string

const claimsCtxKey ctxKey = "jwtClaims"

// InjectClaims adds JWT claims to the context.
func InjectClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, c)
}

// FromContext extracts JWT claims from the context.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsCtxKey).(*Claims)
	return c, ok
}
