package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateCode returns a random lowercase hex string of n bytes, used for
// ticket and attendance record identifiers.
func GenerateCode(n int) (string, error) {
	// Make a slice of n random bytes.
	byt := make([]byte, n)

	// Read into the slice.
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	// Return the hexadecimal string.
	return hex.EncodeToString(byt), nil
}
