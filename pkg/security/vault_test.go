package security

import "testing"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}
	key := DeriveKey("hunter2", salt)

	plaintext := []byte("router-lab-01-password")
	ciphertext, err := Encrypt(key, plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if string(ciphertext) == string(plaintext) {
		t.Fatal("ciphertext equals plaintext")
	}

	got, err := Decrypt(key, ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if string(got) != string(plaintext) {
		t.Errorf("Decrypt() = %q, want %q", got, plaintext)
	}
}

func TestDecryptWrongKeyFails(t *testing.T) {
	salt, _ := NewSalt()
	key1 := DeriveKey("correct-password", salt)
	key2 := DeriveKey("wrong-password", salt)

	ciphertext, err := Encrypt(key1, []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if _, err := Decrypt(key2, ciphertext); err == nil {
		t.Error("Decrypt() with wrong key succeeded, want error")
	}
}

func TestVerifierRoundTrip(t *testing.T) {
	salt, _ := NewSalt()
	key := DeriveKey("vault-password", salt)

	verifier, err := NewVerifier(key)
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}
	if !CheckVerifier(key, verifier) {
		t.Error("CheckVerifier() = false for correct key, want true")
	}

	wrongKey := DeriveKey("not-the-password", salt)
	if CheckVerifier(wrongKey, verifier) {
		t.Error("CheckVerifier() = true for wrong key, want false")
	}
}

func TestSessionLockUnlock(t *testing.T) {
	salt, _ := NewSalt()
	key := DeriveKey("vault-password", salt)
	verifier, _ := NewVerifier(key)

	s := NewSession()
	if s.Unlocked() {
		t.Fatal("new session reports unlocked")
	}

	if _, err := s.Encrypt([]byte("x")); err == nil {
		t.Error("Encrypt() on locked session succeeded, want error")
	}

	if err := s.Unlock("wrong-password", salt, verifier); err == nil {
		t.Error("Unlock() with wrong password succeeded, want error")
	}
	if s.Unlocked() {
		t.Error("failed Unlock() left session unlocked")
	}

	if err := s.Unlock("vault-password", salt, verifier); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if !s.Unlocked() {
		t.Fatal("Unlock() succeeded but Unlocked() = false")
	}

	ciphertext, err := s.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	plain, err := s.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if string(plain) != "payload" {
		t.Errorf("Decrypt() = %q, want %q", plain, "payload")
	}

	s.Lock()
	if s.Unlocked() {
		t.Error("Lock() left session unlocked")
	}
	if _, err := s.Decrypt(ciphertext); err == nil {
		t.Error("Decrypt() after Lock() succeeded, want error")
	}
}
