package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadhub/pkg/models"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("s3cret", "threadhub-test", time.Hour)

	token, expiresAt, err := issuer.Issue("u1", "Ana")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "Ana", claims.DisplayName)
	assert.Equal(t, "threadhub-test", claims.Issuer)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, _, err := NewIssuer("one", "x", time.Hour).Issue("u1", "Ana")
	require.NoError(t, err)

	_, err = NewIssuer("two", "x", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	issuer := NewIssuer("s3cret", "x", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := issuer.Issue("u1", "Ana")
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenProvider(t *testing.T) {
	token, _, err := NewIssuer("s3cret", "x", time.Hour).Issue("u1", "Ana")
	require.NoError(t, err)

	p := NewTokenProvider(" " + token + "\n")
	cred, err := p.Credential()
	require.NoError(t, err)
	assert.Equal(t, models.Credential{UserID: "u1", DisplayName: "Ana", Token: token}, cred)
}

func TestTokenProvider_Unauthenticated(t *testing.T) {
	expiredIssuer := NewIssuer("s3cret", "x", time.Minute)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _, err := expiredIssuer.Issue("u1", "Ana")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "expired", token: expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenProvider(tt.token).Credential()
			assert.ErrorIs(t, err, models.ErrUnauthenticated)
		})
	}
}

func TestTokenProvider_SetToken(t *testing.T) {
	p := NewTokenProvider("")
	_, err := p.Credential()
	require.Error(t, err)

	token, _, err := NewIssuer("s3cret", "x", time.Hour).Issue("u2", "Bo")
	require.NoError(t, err)
	p.SetToken(token)

	cred, err := p.Credential()
	require.NoError(t, err)
	assert.Equal(t, "u2", cred.UserID)
}
