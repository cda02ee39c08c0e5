package secrets

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	KeySize = 32

	info = "t333watch-secrets-v1"
)

// Sealer encrypts provider credentials at rest. Every subject (a user id)
// gets its own derived key and the subject is bound as additional data, so a
// ciphertext copied onto another row fails to open.
type Sealer struct {
	key []byte
}

// NewSealer builds a Sealer from a hex encoded 32 byte master key.
func NewSealer(hexKey string) (*Sealer, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return &Sealer{key: key}, nil
}

// Seal returns base64(nonce || ciphertext).
func (s *Sealer) Seal(subject, plaintext string) (string, error) {
	aead, err := s.aead(subject)
	if err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	out := aead.Seal(nonce, nonce, []byte(plaintext), []byte(subject))
	return base64.RawStdEncoding.EncodeToString(out), nil
}

func (s *Sealer) Open(subject, sealed string) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}

	aead, err := s.aead(subject)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}

	nonce, ct := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ct, []byte(subject))
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}
	return string(plain), nil
}

func (s *Sealer) aead(subject string) (cipher.AEAD, error) {
	derived := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, s.key, []byte(subject), []byte(info)), derived); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return chacha20poly1305.NewX(derived)
}

// GenerateKey returns a fresh hex encoded master key.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
