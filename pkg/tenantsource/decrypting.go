package tenantsource

import (
	"context"
	"errors"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/secrets"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantdb"
)

// Decrypting decrypts the password of every record loaded from next.
type Decrypting struct {
	next   tenantdb.Source
	cipher *secrets.Cipher
}

// NewDecrypting wraps next.
func NewDecrypting(next tenantdb.Source, cipher *secrets.Cipher) *Decrypting {
	return &Decrypting{next: next, cipher: cipher}
}

// Load implements tenantdb.Source. Records without a password pass through.
func (d *Decrypting) Load(ctx context.Context, tenantID string) (tenantdb.ConnectionConfig, error) {
	conn, err := d.next.Load(ctx, tenantID)
	if err != nil || conn.Password == "" {
		return conn, err
	}

	plain, err := d.cipher.DecryptString(tenantID, conn.Password)
	if err != nil {
		return tenantdb.ConnectionConfig{}, errors.Join(ErrDecryptFailed, err)
	}
	conn.Password = plain
	return conn, nil
}

// Seal returns conn with its password encrypted for tenantID, ready to be stored.
func (d *Decrypting) Seal(tenantID string, conn tenantdb.ConnectionConfig) (tenantdb.ConnectionConfig, error) {
	if conn.Password == "" {
		return conn, nil
	}

	sealed, err := d.cipher.EncryptString(tenantID, conn.Password)
	if err != nil {
		return tenantdb.ConnectionConfig{}, err
	}
	conn.Password = sealed
	return conn, nil
}
