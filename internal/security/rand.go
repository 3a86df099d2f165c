package security

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"strings"
)

// RandomBytes generates cryptographically strong bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := io.ReadFull(rand.Reader, b)
	return b, err
}

// GenerateRoomCode produces a 6-character upper-case hex room code.
func GenerateRoomCode() (string, error) {
	b, err := RandomBytes(3)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}
