package credential

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	p, err := Encode(sampleStudent())
	require.NoError(t, err)

	token, err := Sign(p, "secret", "festpass", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := VerifyToken(token, "secret", "festpass")
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	p, err := Encode(sampleStudent())
	require.NoError(t, err)

	token, err := Sign(p, "secret", "festpass", time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken(token, "other-secret", "festpass")
	assert.Error(t, err)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	p, err := Encode(sampleStudent())
	require.NoError(t, err)

	token, err := Sign(p, "secret", "someone-else", time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken(token, "secret", "festpass")
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	p, err := Encode(sampleStudent())
	require.NoError(t, err)

	token, err := Sign(p, "secret", "festpass", -time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken(token, "secret", "festpass")
	assert.Error(t, err)
}
