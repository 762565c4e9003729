package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	iss := NewIssuer("secret", time.Hour, clock)

	token, err := iss.Issue(7, "alice@gmail.com", "user")
	require.NoError(t, err)

	claims, err := iss.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "alice@gmail.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestParseRejects(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	iss := NewIssuer("secret", time.Hour, func() time.Time { return now })
	token, err := iss.Issue(7, "alice@gmail.com", "user")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := NewIssuer("secret", time.Hour, func() time.Time { return now.Add(2 * time.Hour) })
		_, err := later.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("wrong secret", func(t *testing.T) {
		other := NewIssuer("other", time.Hour, func() time.Time { return now })
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := iss.Parse("custom-session-abc")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1, Role: "admin"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = iss.Parse(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestIssueWithoutSecret(t *testing.T) {
	_, err := NewIssuer("", time.Hour, nil).Issue(1, "a@gmail.com", "user")
	assert.Error(t, err)
}
