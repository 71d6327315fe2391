package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripgauge/tripgauge/internal/auth"
)

func newService(t *testing.T, key string) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.JWTConfig{
		SigningKey: key,
		Issuer:     "https://api.tripgauge.dev",
		Audience:   "tripgauge-api",
	})
	require.NoError(t, err)
	return svc
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newService(t, "test-secret-key-for-testing-only")

	token, expiresAt, err := svc.GenerateToken("drv_123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(auth.DefaultTokenTTL), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "drv_123", claims.DriverID)
	assert.Equal(t, "drv_123", claims.Subject)
	assert.Equal(t, "https://api.tripgauge.dev", claims.Issuer)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := newService(t, "test-secret-key-for-testing-only")

	for _, token := range []string{"", "not.a.valid.jwt", "xxx.yyy.zzz"} {
		_, err := svc.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken, "token %q", token)
	}
}

func TestJWTService_WrongSigningKey(t *testing.T) {
	token, _, err := newService(t, "key-one").GenerateToken("drv_123")
	require.NoError(t, err)

	_, err = newService(t, "key-two").ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTService_WrongAudience(t *testing.T) {
	token, _, err := newService(t, "shared").GenerateToken("drv_123")
	require.NoError(t, err)

	other, err := auth.NewJWTService(auth.JWTConfig{SigningKey: "shared", Issuer: "https://api.tripgauge.dev", Audience: "someone-else"})
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTService_Expired(t *testing.T) {
	now := time.Now()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://api.tripgauge.dev",
			Audience:  jwt.ClaimStrings{"tripgauge-api"},
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
		DriverID: "drv_123",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = newService(t, "secret").ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestJWTService_MissingDriver(t *testing.T) {
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://api.tripgauge.dev",
			Audience:  jwt.ClaimStrings{"tripgauge-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = newService(t, "secret").ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestNewJWTService_RequiresKey(t *testing.T) {
	_, err := auth.NewJWTService(auth.JWTConfig{})
	assert.ErrorIs(t, err, auth.ErrMissingKey)
}
