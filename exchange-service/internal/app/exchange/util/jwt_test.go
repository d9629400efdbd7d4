package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_GenerateToken_Success(t *testing.T) {
	// Arrange
	jwtManager := NewJWTManager("test-secret-key", 24*time.Hour)
	userID := uuid.New()

	// Act
	token, err := jwtManager.GenerateToken(userID)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := jwtManager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTManager_ValidateToken_Expired(t *testing.T) {
	// Arrange
	jwtManager := NewJWTManager("test-secret-key", time.Hour)
	jwtManager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := jwtManager.GenerateToken(uuid.New())
	require.NoError(t, err)
	jwtManager.now = time.Now

	// Act
	claims, err := jwtManager.ValidateToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestJWTManager_ValidateToken_WrongSecret(t *testing.T) {
	// Arrange
	issuer := NewJWTManager("secret-a", time.Hour)
	verifier := NewJWTManager("secret-b", time.Hour)
	token, err := issuer.GenerateToken(uuid.New())
	require.NoError(t, err)

	// Act
	_, err = verifier.ValidateToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_ValidateToken_Malformed(t *testing.T) {
	jwtManager := NewJWTManager("test-secret-key", time.Hour)

	_, err := jwtManager.ValidateToken("not.a.token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_ValidateToken_WithoutExpiry(t *testing.T) {
	// Arrange
	claims := SessionClaims{UserID: uuid.New()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)
	jwtManager := NewJWTManager("test-secret-key", time.Hour)

	// Act
	_, err = jwtManager.ValidateToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_ValidateToken_RejectsOtherAlgorithms(t *testing.T) {
	// Arrange
	claims := SessionClaims{
		UserID:           uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)
	jwtManager := NewJWTManager("test-secret-key", time.Hour)

	// Act
	_, err = jwtManager.ValidateToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_GetTokenDuration(t *testing.T) {
	jwtManager := NewJWTManager("k", 24*time.Hour)

	assert.Equal(t, 24*time.Hour, jwtManager.GetTokenDuration())
}
