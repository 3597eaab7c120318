// Package cryptox implements the reference gateway's cryptography: argon2id
// password/master-secret hashing, per-user key derivation and AES-GCM
// encryption of stored fields. The client never imports it.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	KeyLength  = 32
	SaltLength = 16

	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 1
	hashPrefix   = "argon2id"
)

var (
	ErrMalformedHash = errors.New("malformed hash")
	ErrDecrypt       = errors.New("decryption failed")
)

var b64 = base64.RawStdEncoding

// DeriveKey stretches secret into a 32-byte AES-256 key bound to salt.
func DeriveKey(secret string, salt []byte) []byte {
	return argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, KeyLength)
}

// HashSecret returns a self-describing "argon2id$<salt>$<hash>" string.
func HashSecret(secret string) string {
	salt := common.GenerateRandByteArray(SaltLength)
	sum := DeriveKey(secret, salt)
	return strings.Join([]string{hashPrefix, b64.EncodeToString(salt), b64.EncodeToString(sum)}, "$")
}

// VerifySecret reports whether secret matches an encoded hash produced by
// HashSecret. The comparison is constant time.
func VerifySecret(secret, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != hashPrefix {
		return false, ErrMalformedHash
	}
	salt, err := b64.DecodeString(parts[1])
	if err != nil {
		return false, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	want, err := b64.DecodeString(parts[2])
	if err != nil {
		return false, fmt.Errorf("%w: sum: %v", ErrMalformedHash, err)
	}

	got := DeriveKey(secret, salt)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext with AES-GCM under a fresh random nonce.
func Encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	nonce = common.GenerateRandByteArray(aead.NonceSize())
	return aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

func Decrypt(ciphertext, nonce, key []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrDecrypt
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// EncryptString encrypts s and returns base64(nonce || ciphertext), the
// form stored in text columns.
func EncryptString(s string, key []byte) (string, error) {
	ct, nonce, err := Encrypt([]byte(s), key)
	if err != nil {
		return "", err
	}
	return b64.EncodeToString(append(nonce, ct...)), nil
}

func DecryptString(encoded string, key []byte) (string, error) {
	raw, err := b64.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrDecrypt
	}
	pt, err := Decrypt(raw[aead.NonceSize():], raw[:aead.NonceSize()], key)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}
