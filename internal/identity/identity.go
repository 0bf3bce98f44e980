// Package identity verifies bearer tokens and decides who may change the
// order collection.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoToken      = errors.New("authorization header required")
)

type contextKey string

const contextKeyPrincipal contextKey = "principal"

// Claims are the JWT claims accepted by the verifier.
type Claims struct {
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the verified caller.
type Principal struct {
	Subject string
	Roles   []string
	Admin   bool
}

// Anonymous is the principal used when identity checks are disabled.
var Anonymous = Principal{Subject: "anonymous", Admin: true}

// Verifier checks HMAC-signed bearer tokens.
type Verifier struct {
	cfg    Config
	secret []byte
	now    func() time.Time
}

// NewVerifier creates a verifier. A disabled configuration yields a verifier
// that admits every request as Anonymous.
func NewVerifier(cfg Config) (*Verifier, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Verifier{cfg: cfg, secret: []byte(cfg.JWTSecret), now: time.Now}, nil
}

// Enabled reports whether tokens are checked.
func (v *Verifier) Enabled() bool { return v.cfg.Enabled }

// IssueToken signs a token for subject with roles. It backs the CLI and
// tests; production tokens come from the operator's identity provider.
func (v *Verifier) IssueToken(subject string, roles ...string) (string, error) {
	if !v.cfg.Enabled {
		return "", fmt.Errorf("identity is disabled")
	}
	now := v.now()
	claims := Claims{
		Username: subject,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.cfg.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify parses and validates tokenString.
func (v *Verifier) Verify(tokenString string) (Principal, error) {
	if !v.cfg.Enabled {
		return Anonymous, nil
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return Principal{
		Subject: claims.Subject,
		Roles:   claims.Roles,
		Admin:   slices.Contains(claims.Roles, v.cfg.AdminRole),
	}, nil
}

// Authenticate verifies the bearer token on r.
func (v *Verifier) Authenticate(r *http.Request) (Principal, error) {
	if !v.cfg.Enabled {
		return Anonymous, nil
	}
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return Principal{}, ErrNoToken
	}
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return Principal{}, fmt.Errorf("%w: invalid authorization header format", ErrInvalidToken)
	}
	return v.Verify(token)
}

// Middleware rejects requests without a valid token and stores the
// principal in the request context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := v.Authenticate(r)
		if err != nil {
			writeUnauthorized(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// MiddlewareOptional attaches a principal when a token is present and lets
// anonymous requests through.
func (v *Verifier) MiddlewareOptional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v.cfg.Enabled && r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		p, err := v.Authenticate(r)
		if err != nil {
			writeUnauthorized(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireAdmin wraps next so only administrators reach it.
func (v *Verifier) RequireAdmin(next http.Handler) http.Handler {
	return v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := FromContext(r.Context())
		if !p.Admin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"code":"FORBIDDEN","message":"administrator role required"}`))
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

// FromContext returns the principal stored by the middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKeyPrincipal).(Principal)
	return p, ok
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="orderdesk"`)
	w.WriteHeader(http.StatusUnauthorized)
	msg := "Invalid or expired token"
	if errors.Is(err, ErrNoToken) {
		msg = "Authorization header required"
	}
	_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED","message":"` + msg + `"}`))
}
