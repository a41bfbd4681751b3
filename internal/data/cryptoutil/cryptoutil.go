// Package cryptoutil encrypts site credentials at rest.
package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Encryptor encrypts and decrypts credential values.
type Encryptor interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(ciphertext string) ([]byte, error)
}

const (
	// prefixV1 marks AES-256-GCM output; the version allows key or algorithm rotation later.
	prefixV1   = "v1:"
	noopPrefix = "noop:"
)

var (
	// ErrUnknownCipherVersion is returned for ciphertext without a recognised prefix.
	ErrUnknownCipherVersion = errors.New("unknown ciphertext version")
	errShortCiphertext      = errors.New("ciphertext too short")
)

// AESGCMEncryptor implements Encryptor with AES-256-GCM and a random nonce per value.
type AESGCMEncryptor struct {
	aead cipher.AEAD
}

// NewAESGCMEncryptor builds an encryptor from a 32-byte key.
func NewAESGCMEncryptor(key []byte) (*AESGCMEncryptor, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("aes-gcm key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESGCMEncryptor{aead: aead}, nil
}

// KeyFromString accepts a 64-char hex key as-is and otherwise derives a key with SHA-256.
func KeyFromString(key string) []byte {
	if decoded, err := hex.DecodeString(key); err == nil && len(decoded) == 32 {
		return decoded
	}
	sum := sha256.Sum256([]byte(key))
	return sum[:]
}

// Encrypt returns "v1:" + base64(nonce || sealed).
func (e *AESGCMEncryptor) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, e.aead.NonceSize(), e.aead.NonceSize()+len(plaintext)+e.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := e.aead.Seal(nonce, nonce, plaintext, nil)
	return prefixV1 + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens values produced by Encrypt. Values written by NoopEncryptor are accepted too,
// so sites registered before a key was configured stay readable.
func (e *AESGCMEncryptor) Decrypt(ciphertext string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(ciphertext, noopPrefix); ok {
		return decodeNoop(rest)
	}
	rest, ok := strings.CutPrefix(ciphertext, prefixV1)
	if !ok {
		return nil, fmt.Errorf("%w (prefix: %.10s)", ErrUnknownCipherVersion, ciphertext)
	}
	data, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	n := e.aead.NonceSize()
	if len(data) < n {
		return nil, errShortCiphertext
	}
	return e.aead.Open(nil, data[:n], data[n:], nil)
}

// NoopEncryptor stores base64 plaintext behind a marker. Used in tests and when no key is configured.
type NoopEncryptor struct{}

func (NoopEncryptor) Encrypt(plaintext []byte) (string, error) {
	return noopPrefix + base64.StdEncoding.EncodeToString(plaintext), nil
}

func (NoopEncryptor) Decrypt(ciphertext string) ([]byte, error) {
	rest, ok := strings.CutPrefix(ciphertext, noopPrefix)
	if !ok {
		return nil, errors.New("invalid noop ciphertext")
	}
	return decodeNoop(rest)
}

func decodeNoop(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode noop ciphertext: %w", err)
	}
	return b, nil
}
