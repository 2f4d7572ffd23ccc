package tenantsource

import "time"

const (
	KindPostgres = "postgres"
	KindFile     = "file"
)

// Config selects and tunes the tenant configuration source.
type Config struct {
	Kind        string        `env:"TENANT_SOURCE" envDefault:"postgres"`                        // Kind is "postgres" or "file".
	FilePath    string        `env:"TENANT_SOURCE_FILE" envDefault:"tenants.yaml"`               // FilePath is read when Kind is "file".
	CacheTTL    time.Duration `env:"TENANT_SOURCE_CACHE_TTL" envDefault:"5m"`                    // CacheTTL is the lifetime of cached records. Zero disables the cache.
	CachePrefix string        `env:"TENANT_SOURCE_CACHE_PREFIX" envDefault:"humano:tenant-db:"` // CachePrefix namespaces cache keys.
	SecretsKey  string        `env:"TENANT_SECRETS_KEY"`                                        // SecretsKey decrypts stored passwords. Empty means passwords are stored in plain text.
}
