package hmac

import (
	cryptoHMAC "crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// MinKeyLength is the minimum length of a HMAC key
const MinKeyLength = 16

// ErrShortKey is returned when creating a HMAC with a key shorter than MinKeyLength
var ErrShortKey = errors.New("hmac key is too short")

// HMAC is a utility for creating and verifying HMACs
type HMAC struct {
	Key []byte
}

// New returns a HMAC using the given key
func New(key string) (*HMAC, error) {
	if len(key) < MinKeyLength {
		return nil, ErrShortKey
	}

	return &HMAC{
		Key: []byte(key),
	}, nil
}

// Create creates a HMAC of the message, encoded as urlsafe base64
func (h *HMAC) Create(message string) (string, error) {
	mac := cryptoHMAC.New(sha256.New, h.Key)

	if _, err := mac.Write([]byte(message)); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Validate validates that the message matches a given HMAC
func (h *HMAC) Validate(message, mac string) (bool, error) {
	expectedMAC, err := h.Create(message)
	if err != nil {
		return false, err
	}

	return cryptoHMAC.Equal([]byte(mac), []byte(expectedMAC)), nil
}
