package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadhub/internal/identity"
)

func TestPrintSession(t *testing.T) {
	now := time.Now()

	var buf bytes.Buffer
	printSession(&buf, "", "", now)
	assert.Contains(t, buf.String(), "Not logged in")

	token, _, err := identity.NewIssuer("secret", "test", time.Hour).Issue("u-1", "Ana")
	require.NoError(t, err)

	buf.Reset()
	printSession(&buf, "ana", token, now)
	assert.Contains(t, buf.String(), "Username: ana")
	assert.Contains(t, buf.String(), "✓ Logged in until")

	buf.Reset()
	printSession(&buf, "ana", token, now.Add(2*time.Hour))
	assert.Contains(t, buf.String(), "✗ Expired")

	buf.Reset()
	printSession(&buf, "ana", "garbage", now)
	assert.Contains(t, buf.String(), "Unreadable token")
}
