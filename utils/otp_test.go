package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode_deterministic(t *testing.T) {
	secret := NewOTPSecret()

	first := GenerateCode(secret)
	second := GenerateCode(secret)

	assert.Equal(t, first, second, "same secret must always derive the same code")
	require.Len(t, first, 6)
	for _, r := range first {
		assert.True(t, r >= '0' && r <= '9', "code must be numeric")
	}
}

func TestGenerateCode_variesWithSecret(t *testing.T) {
	codes := make(map[string]bool)
	for i := 0; i < 20; i++ {
		codes[GenerateCode(NewOTPSecret())] = true
	}
	assert.Greater(t, len(codes), 1, "codes must depend on the secret")
}

func TestVerifyCode(t *testing.T) {
	secret := NewOTPSecret()
	code := GenerateCode(secret)

	assert.True(t, VerifyCode(secret, code))

	wrong := "000000"
	if wrong == code {
		wrong = "111111"
	}
	assert.False(t, VerifyCode(secret, wrong))
}

func TestVerifyCode_malformedInputFailsClosed(t *testing.T) {
	secret := NewOTPSecret()

	assert.False(t, VerifyCode(secret, ""))
	assert.False(t, VerifyCode(secret, "12345"))
	assert.False(t, VerifyCode(secret, "1234567"))
	assert.False(t, VerifyCode(secret, "abcdef"))
}

func TestVerifyCode_secretsAreIndependent(t *testing.T) {
	a := NewOTPSecret()
	b := NewOTPSecret()

	if GenerateCode(a) == GenerateCode(b) {
		t.Skip("coincidental code collision")
	}
	assert.False(t, VerifyCode(b, GenerateCode(a)))
}
