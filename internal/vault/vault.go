// Package vault seals tenant credentials at rest with AES-256-GCM.
//
// Sealed blob layout: version (1 byte) || key fingerprint (4 bytes) ||
// nonce (12 bytes) || ciphertext. The fingerprint lets Unseal reject
// blobs sealed under a different master key before attempting decryption.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/kailas-cloud/ragfleet/internal/domain"
)

const (
	blobVersion = 1

	versionLen     = 1
	fingerprintLen = 4
	headerLen      = versionLen + fingerprintLen
)

// Vault seals and unseals byte secrets under a single master key.
type Vault struct {
	aead        cipher.AEAD
	fingerprint [fingerprintLen]byte
}

// New creates a Vault from a 32-byte master key.
func New(masterKey []byte) (*Vault, error) {
	if len(masterKey) != 32 {
		return nil, fmt.Errorf("master key must be 32 bytes, got %d", len(masterKey))
	}

	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}

	v := &Vault{aead: aead}
	sum := sha256.Sum256(masterKey)
	copy(v.fingerprint[:], sum[:fingerprintLen])
	return v, nil
}

// Seal encrypts plaintext and returns a self-describing blob.
func (v *Vault) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	blob := make([]byte, 0, headerLen+len(nonce)+len(plaintext)+v.aead.Overhead())
	blob = append(blob, blobVersion)
	blob = append(blob, v.fingerprint[:]...)
	blob = append(blob, nonce...)
	return v.aead.Seal(blob, nonce, plaintext, nil), nil
}

// Unseal decrypts a blob produced by Seal. Blobs sealed under a different
// master key, truncated blobs, and tampered ciphertext all map to
// domain.ErrCredentialDecryption.
func (v *Vault) Unseal(blob []byte) ([]byte, error) {
	nonceLen := v.aead.NonceSize()
	if len(blob) < headerLen+nonceLen+v.aead.Overhead() {
		return nil, fmt.Errorf("%w: blob too short", domain.ErrCredentialDecryption)
	}
	if blob[0] != blobVersion {
		return nil, fmt.Errorf("%w: unsupported blob version %d", domain.ErrCredentialDecryption, blob[0])
	}
	if !bytesEqual(blob[versionLen:headerLen], v.fingerprint[:]) {
		return nil, fmt.Errorf("%w: sealed under a different key", domain.ErrCredentialDecryption)
	}

	nonce := blob[headerLen : headerLen+nonceLen]
	ciphertext := blob[headerLen+nonceLen:]

	plaintext, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.Join(domain.ErrCredentialDecryption, err)
	}
	return plaintext, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
