package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", "4.123.456-7", RoleAdmin, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 5*time.Second)

	claims, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "4.123.456-7", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, err := NewAccessToken("secret", "p1", RoleParticipant, time.Hour)
	require.NoError(t, err)
	_, err = ParseAccessToken("other", good.Token)
	assert.Error(t, err)

	expired, err := NewAccessToken("secret", "p1", RoleParticipant, -time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken("secret", expired.Token)
	assert.Error(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "p1", "role": "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAccessToken("secret", none)
	assert.Error(t, err)
}

func TestNewAccessTokenValidates(t *testing.T) {
	_, err := NewAccessToken("secret", "", RoleAdmin, time.Hour)
	assert.Error(t, err)
	_, err = NewAccessToken("secret", "p1", "owner", time.Hour)
	assert.Error(t, err)
}
