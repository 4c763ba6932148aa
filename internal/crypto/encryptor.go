// Package crypto encrypts the persisted session so that a copied session file
// is useless without the passphrase.
//
// The package uses AES-256-GCM, which provides both confidentiality and
// authenticity. Each call to Seal draws a fresh random nonce, so sealing the
// same plaintext twice yields different ciphertexts.
//
// Example usage:
//
//	enc, err := crypto.NewEncryptor(os.Getenv("TOKEN_ENCRYPTION_KEY"))
//	if err != nil {
//		return err
//	}
//	sealed, err := enc.EncryptJSON(tokens)
//	...
//	err = enc.DecryptJSON(sealed, &tokens)
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"events-client/internal/common/errors"
)

const (
	// pbkdf2Iterations is the work factor for deriving the AES key
	pbkdf2Iterations = 100_000
	keySalt          = "events-client/session/v1"
)

// Encryptor seals and opens small payloads with AES-256-GCM.
//
// The encryptor is safe for concurrent use by multiple goroutines.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor derives a 32-byte key from passphrase with PBKDF2-SHA256.
//
// The salt is fixed so that the same passphrase opens the same file across
// runs; the passphrase itself must carry the entropy.
//
// Parameters:
//   - passphrase: the secret. Must not be empty.
//
// Returns:
//   - *Encryptor: a ready encryptor
//   - error: a config error if the passphrase is empty
func NewEncryptor(passphrase string) (*Encryptor, error) {
	if passphrase == "" {
		return nil, errors.ConfigError("encryption passphrase cannot be empty")
	}

	key := pbkdf2.Key([]byte(passphrase), []byte(keySalt), pbkdf2Iterations, 32, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.InternalError("failed to create cipher", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.InternalError("failed to create GCM", err)
	}

	return &Encryptor{aead: aead}, nil
}

// Seal encrypts plaintext and returns nonce || ciphertext.
func (e *Encryptor) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.InternalError("failed to create nonce", err)
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal. Tampered data, truncated data and a wrong passphrase
// all fail authentication.
func (e *Encryptor) Open(sealed []byte) ([]byte, error) {
	nonceSize := e.aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, errors.ValidationError("ciphertext too short")
	}
	plaintext, err := e.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return nil, errors.InternalError("failed to decrypt", err)
	}
	return plaintext, nil
}

// Encrypt seals a string and returns it base64 encoded. Empty input yields
// empty output.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	sealed, err := e.Seal([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt
func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.InternalError("failed to decode ciphertext", err)
	}
	plaintext, err := e.Open(data)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// EncryptJSON marshals v to JSON and encrypts it
func (e *Encryptor) EncryptJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.InternalError("failed to marshal JSON", err)
	}
	return e.Encrypt(string(data))
}

// DecryptJSON decrypts ciphertext and unmarshals the JSON into v
func (e *Encryptor) DecryptJSON(ciphertext string, v interface{}) error {
	plaintext, err := e.Decrypt(ciphertext)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(plaintext), v); err != nil {
		return errors.InternalError("failed to unmarshal JSON", err)
	}
	return nil
}
