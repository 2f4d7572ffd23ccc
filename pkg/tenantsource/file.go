package tenantsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenant"
	"github.com/Zaaim-Halim/Humano-sub001/pkg/tenantdb"
)

// fileDocument is the YAML layout:
//
//	tenants:
//	  acme:
//	    host: db1.internal
//	    port: 5432
//	    database: humano_acme
//	    username: humano
//	    password: <sealed>
//	    max_pool_size: 20
type fileDocument struct {
	Tenants map[string]tenantdb.ConnectionConfig `yaml:"tenants"`
}

// File serves tenant records from a YAML file. Reload picks up edits.
type File struct {
	path string

	mu      sync.RWMutex
	tenants map[string]tenantdb.ConnectionConfig
}

// NewFile reads path once and returns the source.
func NewFile(path string) (*File, error) {
	f := &File{path: path}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Reload rereads the file. On error the previous records stay in place.
func (f *File) Reload() error {
	fh, err := os.Open(f.path)
	if err != nil {
		return errors.Join(ErrInvalidFile, err)
	}
	defer fh.Close()

	tenants, err := parseFile(fh)
	if err != nil {
		return fmt.Errorf("%s: %w", f.path, err)
	}

	f.mu.Lock()
	f.tenants = tenants
	f.mu.Unlock()
	return nil
}

// Load implements tenantdb.Source.
func (f *File) Load(_ context.Context, tenantID string) (tenantdb.ConnectionConfig, error) {
	f.mu.RLock()
	conn, ok := f.tenants[tenantID]
	f.mu.RUnlock()

	if !ok || conn.Database == "" {
		return tenantdb.ConnectionConfig{}, fmt.Errorf("%w: %s", tenant.ErrTenantNotFound, tenantID)
	}
	return conn, nil
}

// Tenants returns the number of records loaded.
func (f *File) Tenants() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.tenants)
}

func parseFile(r io.Reader) (map[string]tenantdb.ConnectionConfig, error) {
	var doc fileDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrInvalidFile, err)
	}

	tenants := make(map[string]tenantdb.ConnectionConfig, len(doc.Tenants))
	for id, conn := range doc.Tenants {
		norm := tenant.Normalize(id)
		if err := tenant.ValidateID(norm); err != nil {
			return nil, errors.Join(ErrInvalidFile, fmt.Errorf("tenant %q: %w", id, err))
		}
		tenants[norm] = conn
	}
	return tenants, nil
}
