package voucher

import (
	"crypto/rand"

	"github.com/go-faster/errors"
)

// codeAlphabet excludes characters that read ambiguously on a printed
// voucher (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	codeGroupLen = 4
	codeLen      = codeGroupLen*2 + 1 // two groups joined by a dash
)

// GenerateCode produces a fresh human-presentable code of the form
// XXXX-XXXX. Uniqueness is not guaranteed here; the issuer relies on the
// store's unique constraint and retries on collision.
func GenerateCode() (string, error) {
	buf := make([]byte, codeGroupLen*2)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}

	out := make([]byte, 0, codeLen)
	for i, b := range buf {
		if i == codeGroupLen {
			out = append(out, '-')
		}
		out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
	}
	return string(out), nil
}

// ValidCode reports whether s matches the issued code format. Codes that
// fail this check can be rejected without a storage lookup.
func ValidCode(s string) bool {
	if len(s) != codeLen {
		return false
	}
	for i := range len(s) {
		if i == codeGroupLen {
			if s[i] != '-' {
				return false
			}
			continue
		}
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
