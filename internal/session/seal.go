package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrSealedTooShort is returned when a sealed blob is shorter than a nonce.
var ErrSealedTooShort = errors.New("sealed session file too short")

// deriveSealKey stretches the configured passphrase into a 32-byte AES key
// using HKDF-SHA256.
func deriveSealKey(passphrase string) []byte {
	h := hkdf.New(sha256.New, []byte(passphrase), nil, []byte("bankctl-session-seal"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(h, key); err != nil {
		panic(err)
	}
	return key
}

// seal encrypts plain with AES-GCM, prefixing the random nonce.
func seal(key, plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

// open reverses seal.
func open(key, blob []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(blob) < gcm.NonceSize() {
		return nil, ErrSealedTooShort
	}
	nonce, sealed := blob[:gcm.NonceSize()], blob[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}
