package users

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

// VerificationIntent is one of NoIntent, SignupIntent or ResetIntent.
type VerificationIntent interface {
	isVerificationIntent()
}

type NoIntent struct{}

type SignupIntent struct {
	Code string
}

type ResetIntent struct {
	Code    string
	Expires time.Time
}

func (NoIntent) isVerificationIntent()     {}
func (SignupIntent) isVerificationIntent() {}
func (ResetIntent) isVerificationIntent()  {}

// Matches compares the stored and submitted codes in constant time.
func Matches(stored, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

// GenerateCode returns a zero padded 4 digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// IsCode reports whether s is exactly four ASCII digits.
func IsCode(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
