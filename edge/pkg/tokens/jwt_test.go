package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.Generate("device-001")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "device-001", claims.DeviceID)
	assert.Equal(t, "telhawk-edge", claims.Issuer)
}

func TestValidate_WrongSecret(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	other := NewManager("other-secret", time.Hour)

	token, err := m.Generate("device-001")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Expired(t *testing.T) {
	m := NewManager("test-secret", time.Nanosecond)

	token, err := m.Generate("device-001")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidate_Garbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	_, err := m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManager_DefaultTTL(t *testing.T) {
	m := NewManager("s", 0)
	assert.Equal(t, 24*time.Hour, m.ttl)
}
