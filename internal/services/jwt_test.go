package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateTokenPair(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)

	pair, err := svc.GenerateTokenPair(uuid.New(), "test@example.com")

	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)
}

func TestJWTService_ValidateAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)
	userID := uuid.New()

	pair, err := svc.GenerateTokenPair(userID, "test@example.com")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)

	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, "workhours-api", claims.Issuer)
}

func TestJWTService_ValidateAccessToken_WrongSecret(t *testing.T) {
	issuer := NewJWTService("secret-1", 15*time.Minute, 24*time.Hour)
	verifier := NewJWTService("secret-2", 15*time.Minute, 24*time.Hour)

	pair, err := issuer.GenerateTokenPair(uuid.New(), "test@example.com")
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestJWTService_ValidateAccessToken_Expired(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute, 24*time.Hour)

	pair, err := svc.GenerateTokenPair(uuid.New(), "test@example.com")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestJWTService_ValidateAccessToken_RejectsRefreshToken(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)

	pair, err := svc.GenerateTokenPair(uuid.New(), "test@example.com")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestJWTService_ValidateAccessToken_ForeignIssuer(t *testing.T) {
	secret := []byte("test-secret")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:    uuid.New(),
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(secret)
	require.NoError(t, err)

	svc := NewJWTService(string(secret), 15*time.Minute, 24*time.Hour)
	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTService_ValidateAccessToken_Malformed(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.ValidateAccessToken(token)
		assert.Error(t, err, token)
	}
}

func TestJWTService_ValidateRefreshToken(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)
	userID := uuid.New()

	pair, err := svc.GenerateTokenPair(userID, "test@example.com")
	require.NoError(t, err)

	got, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestJWTService_ValidateRefreshToken_Expired(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute, -time.Minute)

	pair, err := svc.GenerateTokenPair(uuid.New(), "test@example.com")
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(pair.RefreshToken)
	assert.Error(t, err)
}

func TestJWTService_RefreshTokensAreUnique(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)
	userID := uuid.New()

	a, err := svc.GenerateTokenPair(userID, "test@example.com")
	require.NoError(t, err)
	b, err := svc.GenerateTokenPair(userID, "test@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, a.RefreshToken, b.RefreshToken)
}

func TestHashToken(t *testing.T) {
	h := HashToken("token")

	assert.Len(t, h, 64)
	assert.Equal(t, h, HashToken("token"))
	assert.NotEqual(t, h, HashToken("other"))
}
