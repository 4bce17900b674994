package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	tempPasswordLength = 16

	lowerChars = "abcdefghijkmnopqrstuvwxyz"
	upperChars = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitChars = "23456789"
)

// GenerateTempPassword generates a one-time temporary password for an
// invited staff member. The result always contains at least one lowercase
// letter, one uppercase letter and one digit. Ambiguous characters
// (0/O, 1/l/I) are excluded.
func GenerateTempPassword() (string, error) {
	all := lowerChars + upperChars + digitChars

	buf := make([]byte, tempPasswordLength)
	classes := []string{lowerChars, upperChars, digitChars}
	for i := range buf {
		charset := all
		if i < len(classes) {
			charset = classes[i]
		}
		ch, err := randomChar(charset)
		if err != nil {
			return "", err
		}
		buf[i] = ch
	}

	// Shuffle so the guaranteed classes are not always in front.
	for i := len(buf) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := n.Int64()
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}

func randomChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, fmt.Errorf("random generation failed: %w", err)
	}
	return charset[n.Int64()], nil
}
