// Package base62 encodes non-negative integers into compact
// [a-zA-Z0-9] strings and back, the alphabet used for counter-derived
// short codes.
package base62

import (
	"strings"

	"urlshort/internal/apperr"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const base = int64(len(alphabet))

var charIndex = buildIndex()

func buildIndex() map[byte]int64 {
	idx := make(map[byte]int64, len(alphabet))
	for i := 0; i < len(alphabet); i++ {
		idx[alphabet[i]] = int64(i)
	}
	return idx
}

// Encode maps a non-negative integer to a base62 string, emitting "a"
// for n=0.
func Encode(n int64) string {
	if n == 0 {
		return string(alphabet[0])
	}
	if n < 0 {
		n = -n
	}
	var sb strings.Builder
	digits := make([]byte, 0, 11)
	for n > 0 {
		digits = append(digits, alphabet[n%base])
		n /= base
	}
	for i := len(digits) - 1; i >= 0; i-- {
		sb.WriteByte(digits[i])
	}
	return sb.String()
}

// EncodeMinLen left-pads the encoding with the alphabet's zero digit to
// reach length l.
func EncodeMinLen(n int64, l int) string {
	enc := Encode(n)
	if len(enc) >= l {
		return enc
	}
	pad := strings.Repeat(string(alphabet[0]), l-len(enc))
	return pad + enc
}

// Decode is the inverse of Encode; any byte outside the alphabet fails
// with apperr.CodeValidationError.
func Decode(s string) (int64, error) {
	if s == "" {
		return 0, apperr.ValidationError("base62: empty input")
	}
	var n int64
	for i := 0; i < len(s); i++ {
		v, ok := charIndex[s[i]]
		if !ok {
			return 0, apperr.ValidationError("base62: invalid character in input")
		}
		n = n*base + v
	}
	return n, nil
}

// IsValid reports whether every byte of s is in the base62 alphabet.
func IsValid(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if _, ok := charIndex[s[i]]; !ok {
			return false
		}
	}
	return true
}
