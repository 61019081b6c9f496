// Package shared provides utility functions for working with
// random strings, one-time codes and secure memory wiping.
package shared

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strings"
)

// MakeRandHexString generates a random hexadecimal string of the given size.
// The size parameter specifies the number of random bytes to generate before
// encoding them as a hexadecimal string, so the final string length is twice
// the size.
//
// It returns an error if the random number generator fails.
func MakeRandHexString(size int) (string, error) {

	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// GenerateNumericCode returns a uniformly random decimal code of exactly
// digits characters (leading zeros allowed), e.g. "042917" for digits=6.
func GenerateNumericCode(digits int) (string, error) {
	var sb strings.Builder
	sb.Grow(digits)

	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// This is useful for removing sensitive data such as passwords from memory
// after use.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
