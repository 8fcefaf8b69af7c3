package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateHexToken returns prefix followed by 2*length random hex characters
func GenerateHexToken(prefix string, length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure token: %w", err)
	}
	return prefix + hex.EncodeToString(bytes), nil
}

// MaskCardNumber keeps only the last four digits of a card number
func MaskCardNumber(digits string) string {
	if len(digits) <= 4 {
		return digits
	}
	masked := make([]byte, len(digits))
	for i := range masked {
		if i < len(digits)-4 {
			masked[i] = '*'
		} else {
			masked[i] = digits[i]
		}
	}
	return string(masked)
}
