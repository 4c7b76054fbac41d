// Package security implements the secret store's encryption: PBKDF2 key
// derivation from a password, AES-256-GCM envelope encryption of credential
// material, and the in-memory vault session that owns the derived key.
//
// The envelope format is nonce-prepended-to-ciphertext AES-256-GCM, with the
// key derived from a human password via PBKDF2-HMAC-SHA256 (>= 480,000
// iterations, 16-byte salt) rather than supplied pre-derived.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2Iterations is the iteration count DeriveKey uses for every key.
const PBKDF2Iterations = 480_000

// SaltSize is the per-store salt length in bytes.
const SaltSize = 16

// keySize is the AES-256 key length in bytes.
const keySize = 32

// DeriveKey derives a 32-byte AES-256 key from password and salt using
// PBKDF2-HMAC-SHA256 at PBKDF2Iterations rounds.
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, PBKDF2Iterations, keySize, sha256.New)
}

// NewSalt generates a fresh random salt for a new secret store.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// Verifier is a value derived from the store's key that lets Unlock confirm
// a candidate password without ever persisting the password or key itself.
// It is the encryption, under the candidate key, of a fixed known plaintext.
func NewVerifier(key []byte) ([]byte, error) {
	return Encrypt(key, []byte(verifierPlaintext))
}

const verifierPlaintext = "netcollect-vault-verifier-v1"

// CheckVerifier reports whether key decrypts verifier to the expected
// plaintext, i.e. whether the password used to derive key was correct.
func CheckVerifier(key, verifier []byte) bool {
	plain, err := Decrypt(key, verifier)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(plain, []byte(verifierPlaintext)) == 1
}

// Encrypt seals plaintext under key using AES-256-GCM, prepending the nonce
// to the returned ciphertext.
func Encrypt(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens ciphertext produced by Encrypt under key.
func Decrypt(key, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}
