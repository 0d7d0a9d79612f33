package helpers

import (
	"crypto/rand"
	"math/big"
)

const temporaryPasswordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// TemporaryPasswordLength is long enough to pass the signup minimum of 8.
const TemporaryPasswordLength = 12

// GenTemporaryPassword returns a fresh random password drawn from crypto/rand.
// Ambiguous characters (0/O, 1/l/I) are left out since the value is read from an email.
func GenTemporaryPassword(n int) (string, error) {
	if n <= 0 {
		n = TemporaryPasswordLength
	}
	max := big.NewInt(int64(len(temporaryPasswordAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = temporaryPasswordAlphabet[idx.Int64()]
	}
	return string(b), nil
}
