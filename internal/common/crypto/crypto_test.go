package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPIN(t *testing.T) {
	tests := []struct {
		pin  string
		want bool
	}{
		{"1234", true},
		{"123456", true},
		{"123", false},
		{"1234567", false},
		{"12a4", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidPIN(tt.pin), "pin %q", tt.pin)
	}
}

func TestHashAndVerifyPIN(t *testing.T) {
	hash, err := HashPIN("4321")
	require.NoError(t, err)
	assert.NotEqual(t, "4321", hash)

	assert.True(t, VerifyPIN("4321", hash))
	assert.False(t, VerifyPIN("1234", hash))
	assert.False(t, VerifyPIN("4321", "not-a-hash"))
}

func TestHashPINRejectsInvalid(t *testing.T) {
	_, err := HashPIN("abc")
	assert.ErrorIs(t, err, ErrInvalidPIN)
}

func TestGenerateRandomString(t *testing.T) {
	a, err := GenerateRandomString(16)
	require.NoError(t, err)
	assert.Len(t, a, 16)

	b, err := GenerateRandomString(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "079****4567", MaskPhone("07912344567"))
	assert.Equal(t, "12345", MaskPhone("12345"))
}
