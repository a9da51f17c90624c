package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/google/uuid"
)

const codeDigits = 6

// NewOTPSecret returns fresh random secret material for a challenge.
func NewOTPSecret() string {
	return uuid.NewString()
}

// GenerateCode derives the 6-digit verification code for a secret. The
// derivation is deterministic; all randomness lives in the secret.
func GenerateCode(secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("verification-code"))
	sum := mac.Sum(nil)

	// RFC 4226 dynamic truncation
	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < codeDigits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", codeDigits, bin%mod)
}

// VerifyCode recomputes the code for the secret and compares in constant
// time. Malformed input simply does not match.
func VerifyCode(secret, code string) bool {
	if len(code) != codeDigits {
		return false
	}
	expected := GenerateCode(secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1
}
