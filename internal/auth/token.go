// Package auth supplies the bearer token attached to every API call.
//
// The session itself is owned elsewhere (the login flow writes a token to
// the environment or to a file); this package only reads it, and refuses
// to hand out a JWT whose exp claim has already passed so an expired
// session fails locally instead of as a 401.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aanand-mishra/school-health/internal/clock"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoToken means no session token is configured.
	ErrNoToken = errors.New("no session token: log in again")

	// ErrTokenExpired means the token's exp claim is in the past.
	ErrTokenExpired = errors.New("session has expired: log in again")
)

// TokenSource returns the bearer token for the next request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Static serves a fixed token, e.g. from API_TOKEN.
type Static struct {
	Value string
	Clock clock.Clock
}

func (s Static) Token(_ context.Context) (string, error) {
	return check(s.Value, s.Clock)
}

// File re-reads the token from Path on every call so a re-login is picked
// up without restarting the console.
type File struct {
	Path  string
	Clock clock.Clock
}

func (f File) Token(_ context.Context) (string, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("auth.File: read %s: %w", f.Path, err)
	}
	return check(string(b), f.Clock)
}

// check trims the token and, when it parses as a JWT, rejects it if it has
// expired. Opaque tokens pass through untouched. The signature is not
// verified here; the backend does that.
func check(token string, clk clock.Clock) (string, error) {
	token = strings.TrimSpace(token)
	token = strings.TrimPrefix(token, "Bearer ")
	if token == "" {
		return "", ErrNoToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return token, nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return token, nil
	}
	if clk == nil {
		clk = clock.New()
	}
	if !clk.Now().Before(exp.Time) {
		return "", ErrTokenExpired
	}
	return token, nil
}

// Subject returns the JWT "sub" claim, or "" for opaque tokens. The console
// uses it to label journal entries with who performed the action.
func Subject(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}
