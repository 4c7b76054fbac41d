package security

import (
	"sync"

	"github.com/ravensys/netcollect/pkg/collectorerr"
)

// Session owns the secret store's derived symmetric key in memory between
// Unlock and Lock. The key exists only in memory and is never written to
// disk; Lock zeroes it so no decrypted material remains reachable
// afterward.
type Session struct {
	mu sync.RWMutex
	key []byte
	unlocked bool
}

// NewSession returns a locked session.
func NewSession() *Session {
	return &Session{}
}

// Unlock derives the store key from password+salt, checks it against
// verifier, and if it matches, holds the key for subsequent Encrypt/Decrypt
// calls.
func (s *Session) Unlock(password string, salt, verifier []byte) error {
	key := DeriveKey(password, salt)
	if !CheckVerifier(key, verifier) {
		return collectorerr.New(collectorerr.SecretStoreLocked, "incorrect vault password")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
	s.unlocked = true
	return nil
}

// Lock discards the in-memory key. After Lock, Encrypt/Decrypt fail with
// SecretStoreLocked until Unlock is called again.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.key {
		s.key[i] = 0
	}
	s.key = nil
	s.unlocked = false
}

// Unlocked reports whether the session currently holds a derived key.
func (s *Session) Unlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unlocked
}

// Encrypt seals plaintext under the session's key.
func (s *Session) Encrypt(plaintext []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.unlocked {
		return nil, collectorerr.New(collectorerr.SecretStoreLocked, "vault is locked")
	}
	return Encrypt(s.key, plaintext)
}

// Decrypt opens ciphertext sealed under the session's key.
func (s *Session) Decrypt(ciphertext []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.unlocked {
		return nil, collectorerr.New(collectorerr.SecretStoreLocked, "vault is locked")
	}
	return Decrypt(s.key, ciphertext)
}
