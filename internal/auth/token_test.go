package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aanand-mishra/school-health/internal/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestStaticOpaqueToken(t *testing.T) {
	tok, err := Static{Value: "  Bearer abc123\n"}.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", tok)

	_, err = Static{}.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestStaticJWTExpiry(t *testing.T) {
	now := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	clk := clock.NewManaged(now)
	jwtTok := signed(t, "nurse.joy", now.Add(time.Hour))

	got, err := Static{Value: jwtTok, Clock: clk}.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, jwtTok, got)
	assert.Equal(t, "nurse.joy", Subject(got))

	clk.WarpForward(2 * time.Hour)
	_, err = Static{Value: jwtTok, Clock: clk}.Token(context.Background())
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestFileToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")

	_, err := File{Path: path}.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, os.WriteFile(path, []byte("opaque-token\n"), 0o600))
	tok, err := File{Path: path}.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", tok)
	assert.Equal(t, "", Subject(tok))
}
