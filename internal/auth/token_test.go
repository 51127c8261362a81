package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", 0)

	for _, userID := range []string{"u-1", "8e8c45a4-9d5f-4aa0-94fa-5e1b25fdbd4f", "x"} {
		token, err := m.Issue(userID)
		require.NoError(t, err)

		got, err := m.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issued, err := NewTokenManager("key-one", 0).Issue("u-1")
	require.NoError(t, err)

	_, err = NewTokenManager("key-two", 0).Verify(issued)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	m := NewTokenManager("test-secret", 0)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	m := NewTokenManager("test-secret", 0)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u-1"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewTokenManager("test-secret", time.Nanosecond)

	token, err := m.Issue("u-1")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestZeroTTLIssuesNonExpiringToken(t *testing.T) {
	m := NewTokenManager("test-secret", 0)

	token, err := m.Issue("u-1")
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}
