// Package verification is the credential store for the public booking
// flow: short-lived numeric codes keyed by phone, single-use, with a
// send-throttle. It knows nothing about appointments.
package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// RandomNumericCode returns a string of length random decimal digits
// from crypto/rand.
func RandomNumericCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", length)
	}

	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate code digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
