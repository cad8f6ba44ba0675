package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// CodeBytes is the entropy of a confirmation code.
const CodeBytes = 16

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateConfirmationCode returns a random lower-case base32 code (26 chars).
func GenerateConfirmationCode() (string, error) {
	buf := make([]byte, CodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToLower(codeEncoding.EncodeToString(buf)), nil
}
