package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// Cipher seals tenant credentials under the application key.
// It is safe for concurrent use.
type Cipher struct {
	appKey []byte
}

// NewCipher returns a Cipher for appKey, which must be KeySize bytes.
func NewCipher(appKey []byte) (*Cipher, error) {
	if len(appKey) != KeySize {
		return nil, ErrInvalidAppKey
	}
	return &Cipher{appKey: append([]byte(nil), appKey...)}, nil
}

// EncryptString encrypts plaintext for tenantID and returns base64.
func (c *Cipher) EncryptString(tenantID, plaintext string) (string, error) {
	sealed, err := c.encrypt(tenantID, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString reverses EncryptString. It fails when the ciphertext was
// produced for another tenant or under another application key.
func (c *Cipher) DecryptString(tenantID, ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}

	plain, err := c.decrypt(tenantID, raw)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func (c *Cipher) aead(tenantID string) (cipher.AEAD, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	key, err := deriveKey(c.appKey, TenantKey(tenantID))
	if err != nil {
		return nil, err
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// encrypt returns nonce || ciphertext || tag.
func (c *Cipher) encrypt(tenantID string, data []byte) ([]byte, error) {
	gcm, err := c.aead(tenantID)
	if err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	return gcm.Seal(nonce, nonce, data, nil), nil
}

func (c *Cipher) decrypt(tenantID string, sealed []byte) ([]byte, error) {
	gcm, err := c.aead(tenantID)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}

	n := gcm.NonceSize()
	if len(sealed) < n+gcm.Overhead() {
		return nil, ErrInvalidCiphertext
	}

	plain, err := gcm.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	return plain, nil
}
