package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testSecret, time.Hour, "blog-api", NewMemoryBlacklist())

	token, err := svc.Issue(42, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testSecret, -time.Minute, "blog-api", nil)
	token, err := svc.Issue(1, "bob")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewTokenService("secret-one", time.Hour, "blog-api", nil)
	verifier := NewTokenService("secret-two", time.Hour, "blog-api", nil)

	token, err := issuer.Issue(1, "bob")
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTampered(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testSecret, time.Hour, "blog-api", nil)
	token, err := svc.Issue(1, "bob")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	// 换成另一个用户的载荷，签名不变
	other, err := svc.Issue(2, "mallory")
	require.NoError(t, err)
	forged := parts[0] + "." + strings.Split(other, ".")[1] + "." + parts[2]

	_, err = svc.Verify(context.Background(), forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testSecret, time.Hour, "", nil)
	_, err := svc.Verify(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongIssuer(t *testing.T) {
	t.Parallel()

	token, err := NewTokenService(testSecret, time.Hour, "someone-else", nil).Issue(1, "bob")
	require.NoError(t, err)

	_, err = NewTokenService(testSecret, time.Hour, "blog-api", nil).Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsOtherAlgorithm(t *testing.T) {
	t.Parallel()

	claims := Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewTokenService(testSecret, time.Hour, "", nil).Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevoke(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewTokenService(testSecret, time.Hour, "blog-api", NewMemoryBlacklist())

	token, err := svc.Issue(7, "carol")
	require.NoError(t, err)
	other, err := svc.Issue(7, "carol")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, token))

	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// 同一用户的其他令牌不受影响
	_, err = svc.Verify(ctx, other)
	assert.NoError(t, err)
}

func TestRevokeInvalidToken(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(testSecret, time.Hour, "blog-api", NewMemoryBlacklist())
	assert.ErrorIs(t, svc.Revoke(context.Background(), "garbage"), ErrInvalidToken)
}
