// Package security generates the secrets handed out to account owners.
package security

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// TemporaryPasswordAlphabet leaves out characters that are easy to misread.
const TemporaryPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

const (
	DefaultTemporaryPasswordLength = 14
	maxTemporaryPasswordAttempts   = 64
)

var (
	errNegativeLength      = errors.New("length must be non-negative")
	errAlphabetSize        = errors.New("alphabet must hold between 1 and 256 characters")
	errNoAcceptedCandidate = errors.New("no candidate passed the password policy")
)

// RandomString draws length characters uniformly from alphabet. Random bytes
// above the largest multiple of the alphabet size are rejected.
func RandomString(length int, alphabet string) (string, error) {
	if length < 0 {
		return "", errNegativeLength
	}
	if len(alphabet) == 0 || len(alphabet) > 256 {
		return "", errAlphabetSize
	}

	limit := 256 - 256%len(alphabet)
	value := make([]byte, 0, length)
	chunk := make([]byte, length+8)
	for len(value) < length {
		if _, err := rand.Read(chunk); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range chunk {
			if int(b) >= limit {
				continue
			}
			value = append(value, alphabet[int(b)%len(alphabet)])
			if len(value) == length {
				break
			}
		}
	}
	return string(value), nil
}

// TemporaryPassword returns a random password that accept approves. accept
// may be nil.
func TemporaryPassword(length int, accept func(string) bool) (string, error) {
	for range maxTemporaryPasswordAttempts {
		candidate, err := RandomString(length, TemporaryPasswordAlphabet)
		if err != nil {
			return "", err
		}
		if accept == nil || accept(candidate) {
			return candidate, nil
		}
	}
	return "", errNoAcceptedCandidate
}
