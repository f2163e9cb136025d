// Package secrets encrypts small credentials with NaCl secretbox.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

// prefix marks values produced by Box so plaintext rows written before a key
// was configured still read back.
const prefix = "sbx1:"

const nonceSize = 24

var ErrDecrypt = errors.New("secrets: message authentication failed")

// Box implements ports.SecretCipher
type Box struct {
	key *[32]byte
}

func NewBox(key *[32]byte) *Box {
	return &Box{key: key}
}

// Encrypt seals plain with a random nonce. Empty input stays empty.
func (b *Box) Encrypt(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("secrets: generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plain), &nonce, b.key)
	return prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt and passes anything else through
func (b *Box) Decrypt(stored string) (string, error) {
	if !strings.HasPrefix(stored, prefix) {
		return stored, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, prefix))
	if err != nil {
		return "", fmt.Errorf("secrets: decode: %w", err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrDecrypt
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, b.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(plain), nil
}
