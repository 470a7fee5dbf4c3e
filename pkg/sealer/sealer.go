// Package sealer mints opaque claim tokens for reservations. The token
// encodes facilityID:reservationID under AES-GCM so external channels
// (SMS links, payment callbacks) can reference a reservation without
// exposing raw store identifiers.
package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// defaultKey is used when no CLAIM_SEAL_KEY is configured. Fine for
// development; production deployments set their own key.
const defaultKey = "lfQVRuulcL2iOhOJ2r8BYTweoSKwVAJnIF9U+AL+M60="

type Sealer struct {
	key []byte
}

// New builds a Sealer from a base64-encoded 256-bit key. An empty key
// selects the development default.
func New(base64Key string) (*Sealer, error) {
	if base64Key == "" {
		base64Key = defaultKey
	}

	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("invalid seal key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("seal key must be 32 bytes, got %d", len(key))
	}

	return &Sealer{key: key}, nil
}

// SealClaim produces an opaque URL-safe token for (facilityID, reservationID).
func (s *Sealer) SealClaim(facilityID, reservationID string) (string, error) {
	plaintext := []byte(facilityID + ":" + reservationID)

	aesgcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ct := aesgcm.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ct), nil
}

// UnsealClaim recovers (facilityID, reservationID) from a sealed token.
// Tampered or foreign tokens fail authentication and return an error.
func (s *Sealer) UnsealClaim(token string) (string, string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("malformed claim token: %w", err)
	}

	aesgcm, err := s.gcm()
	if err != nil {
		return "", "", err
	}

	nonceSize := aesgcm.NonceSize()
	if len(data) < nonceSize {
		return "", "", fmt.Errorf("malformed claim token")
	}
	nonce := data[:nonceSize]
	ciphertext := data[nonceSize:]

	pt, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", "", fmt.Errorf("claim token failed authentication: %w", err)
	}

	parts := strings.SplitN(string(pt), ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid claim token format")
	}

	return parts[0], parts[1], nil
}

func (s *Sealer) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
