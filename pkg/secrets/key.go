package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the size of the application key and of every derived key.
	KeySize = 32

	// hkdfInfo separates tenant credential keys from other uses of the app key.
	hkdfInfo = "humano-tenant-credentials-v1"
)

// TenantKey returns the per-tenant key material for tenantID.
func TenantKey(tenantID string) []byte {
	sum := sha256.Sum256([]byte("tenant:" + tenantID))
	return sum[:]
}

// ParseKey decodes an application key given as 64 hex characters or as
// standard base64.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)

	var (
		key []byte
		err error
	)
	if len(s) == hex.EncodedLen(KeySize) {
		key, err = hex.DecodeString(s)
	} else {
		key, err = base64.StdEncoding.DecodeString(s)
	}
	if err != nil {
		return nil, errors.Join(ErrInvalidAppKey, err)
	}
	if len(key) != KeySize {
		return nil, ErrInvalidAppKey
	}
	return key, nil
}

// GenerateKey creates a random application key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

func deriveKey(appKey, tenantKey []byte) ([]byte, error) {
	if len(appKey) != KeySize {
		return nil, ErrInvalidAppKey
	}
	if len(tenantKey) != KeySize {
		return nil, ErrInvalidTenantKey
	}

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, appKey, tenantKey, []byte(hkdfInfo)), key); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return key, nil
}
