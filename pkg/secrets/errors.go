package secrets

import "errors"

var (
	ErrInvalidKey          = errors.New("invalid encryption key: must be 32 bytes hex encoded")
	ErrEncryptionFailed    = errors.New("encryption failed")
	ErrDecryptionFailed    = errors.New("decryption failed")
	ErrInvalidCiphertext   = errors.New("invalid ciphertext format")
	ErrKeyDerivationFailed = errors.New("key derivation failed")
)
