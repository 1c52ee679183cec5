// Package secret issues and verifies bearer keys of the form
// <key-id>.<secret>. The key id is stored in clear for lookup, the secret
// only as a bcrypt hash.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	keyIDBytes  = 9
	secretBytes = 24
)

// ErrMalformed is returned by Parse for keys without the expected shape.
var ErrMalformed = errors.New("malformed key")

// Issued is a freshly generated key. Plain is shown once and never stored.
type Issued struct {
	KeyID string
	Plain string
	Hash  string
}

// Generate creates a random key and its bcrypt hash.
func Generate() (Issued, error) {
	id, err := randomString(keyIDBytes)
	if err != nil {
		return Issued{}, err
	}
	sec, err := randomString(secretBytes)
	if err != nil {
		return Issued{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(sec), bcrypt.DefaultCost)
	if err != nil {
		return Issued{}, fmt.Errorf("hash secret: %w", err)
	}
	return Issued{KeyID: id, Plain: Join(id, sec), Hash: string(hash)}, nil
}

// Join assembles the presented form of a key.
func Join(keyID, secret string) string {
	return keyID + "." + secret
}

// Parse splits a presented key into its id and secret.
func Parse(key string) (keyID, secret string, err error) {
	keyID, secret, ok := strings.Cut(strings.TrimSpace(key), ".")
	if !ok || keyID == "" || secret == "" || strings.Contains(secret, ".") {
		return "", "", ErrMalformed
	}
	return keyID, secret, nil
}

// Verify reports whether secret matches hash.
func Verify(hash, secret string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
