package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

const (
	// MinTempPasswordLen is enforced by construction in GenerateTempPassword.
	MinTempPasswordLen = 12

	tempPasswordUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	tempPasswordLower   = "abcdefghijkmnpqrstuvwxyz"
	tempPasswordDigits  = "23456789"
	tempPasswordSymbols = "!@#$%^&*-_=+"
)

// GenerateOTPCode returns a numeric code of the given length drawn from a
// cryptographically secure source. Leading zeros are allowed.
func GenerateOTPCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("otp length must be positive")
	}

	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate otp code: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// GenerateToken returns a URL-safe bearer token of numBytes of entropy.
// Used for magic links and signup session tokens.
func GenerateToken(numBytes int) (string, error) {
	if numBytes <= 0 {
		return "", fmt.Errorf("token size must be positive")
	}

	buf := make([]byte, numBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateTempPassword builds a one-time password of the given length with at
// least one uppercase letter, one lowercase letter, one digit and one symbol.
// The remaining characters come from the full alphabet and the result is
// shuffled with a secure random permutation.
func GenerateTempPassword(length int) (string, error) {
	if length < MinTempPasswordLen {
		length = MinTempPasswordLen
	}

	full := tempPasswordUpper + tempPasswordLower + tempPasswordDigits + tempPasswordSymbols

	chars := make([]byte, 0, length)
	for _, set := range []string{tempPasswordUpper, tempPasswordLower, tempPasswordDigits, tempPasswordSymbols} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := randomChar(full)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	// Fisher-Yates with crypto/rand so required characters are not at
	// predictable positions.
	for i := len(chars) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("failed to shuffle temp password: %w", err)
		}
		j := n.Int64()
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("failed to generate temp password: %w", err)
	}
	return set[n.Int64()], nil
}
