// Package security implements the secret store's cryptography: PBKDF2
// key derivation from a vault password, a verifier that lets Unlock
// confirm a password without persisting it, and AES-256-GCM envelope
// encryption for credential material. Session owns the derived key
// for the process lifetime between Unlock and Lock; nothing outside this
// package and pkg/credential's in-memory cache should ever hold plaintext
// credential bytes.
package security
