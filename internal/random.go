package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

const tokenRawSize = 32

// NewSessionToken returns an opaque session token: 32 bytes from
// crypto/rand, base64url encoded without padding. The token carries no
// embedded claims; it is only meaningful as a cache key.
func NewSessionToken() (string, error) {
	var raw [tokenRawSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// ParseSessionToken checks that a client-supplied token has the exact shape
// produced by NewSessionToken. Malformed tokens are rejected before any
// cache round-trip.
func ParseSessionToken(token string) error {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return err
	}
	if len(raw) != tokenRawSize {
		return errors.New("invalid session token size")
	}
	return nil
}
