package checkout

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const referenceRandomBytes = 8

// NewReference draws a random order reference like "PS-3F2A9C01B4D7E8F6".
// Uniqueness is enforced against the orders table by the caller, not here.
func NewReference(prefix string) (string, error) {
	buf := make([]byte, referenceRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating order reference: %w", err)
	}
	token := strings.ToUpper(hex.EncodeToString(buf))
	if prefix == "" {
		return token, nil
	}
	return prefix + "-" + token, nil
}
