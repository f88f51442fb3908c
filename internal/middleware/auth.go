package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"finsight/internal/infrastructure"
)

// subjectKey is the context key holding the authenticated token subject
type subjectKey struct{}

// TokenAuthenticator issues and verifies HMAC-signed bearer tokens.
// Authentication is optional: with an empty secret the middleware is a
// pass-through and IssueToken refuses to sign.
type TokenAuthenticator struct {
	secret []byte
	expiry time.Duration
	logger *slog.Logger
}

// NewTokenAuthenticator creates a token authenticator. An empty secret
// disables authentication entirely.
func NewTokenAuthenticator(secret string, expiry time.Duration, logger *slog.Logger) *TokenAuthenticator {
	if expiry <= 0 {
		expiry = 30 * time.Minute
	}
	return &TokenAuthenticator{
		secret: []byte(secret),
		expiry: expiry,
		logger: logger.With(slog.String("component", "token_auth")),
	}
}

// Enabled reports whether a signing secret is configured
func (a *TokenAuthenticator) Enabled() bool {
	return len(a.secret) > 0
}

// Expiry returns the configured token lifetime
func (a *TokenAuthenticator) Expiry() time.Duration {
	return a.expiry
}

// IssueToken signs a new HS256 token for the given subject
func (a *TokenAuthenticator) IssueToken(subject string) (string, error) {
	if !a.Enabled() {
		return "", fmt.Errorf("token signing is not configured")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.expiry)),
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a signed token, returning its subject
func (a *TokenAuthenticator) VerifyToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Handler enforces bearer token authentication. When no secret is
// configured all requests pass through unauthenticated.
func (a *TokenAuthenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			a.logger.WarnContext(ctx, "missing authorization header",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			problem := ProblemFromStatus(
				http.StatusUnauthorized,
				"Missing authorization header",
				infrastructure.GetTraceID(ctx),
			)
			problem.Render(w, r)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			a.logger.WarnContext(ctx, "invalid authorization format",
				"method", r.Method,
				"path", r.URL.Path,
			)
			problem := ProblemFromStatus(
				http.StatusUnauthorized,
				"Invalid authorization format. Use: Bearer <token>",
				infrastructure.GetTraceID(ctx),
			)
			problem.Render(w, r)
			return
		}

		subject, err := a.VerifyToken(parts[1])
		if err != nil {
			a.logger.WarnContext(ctx, "token validation failed",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err.Error(),
			)
			problem := ProblemFromStatus(
				http.StatusUnauthorized,
				"Invalid or expired token",
				infrastructure.GetTraceID(ctx),
			)
			problem.Render(w, r)
			return
		}

		ctx = context.WithValue(ctx, subjectKey{}, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSubject retrieves the authenticated token subject from the context
func GetSubject(ctx context.Context) string {
	if subject, ok := ctx.Value(subjectKey{}).(string); ok {
		return subject
	}
	return ""
}
