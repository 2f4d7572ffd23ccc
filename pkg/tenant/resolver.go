package tenant

import (
	"net"
	"net/http"
	"strings"
)

const (
	// DefaultHeader carries an explicit tenant identifier and wins over host based inference.
	DefaultHeader = "X-Tenant-ID"

	// MaxTenantIDLength keeps identifiers DNS compatible.
	MaxTenantIDLength = 63
)

// DefaultReservedPrefixes are first host labels that never name a tenant.
var DefaultReservedPrefixes = []string{"www", "api", "app", "admin"}

// Resolver extracts a tenant identifier from an HTTP request.
// Returns empty string if the strategy found nothing.
type Resolver func(r *http.Request) string

// NewHeaderResolver reads the tenant from a request header, trimmed and lowercased.
// Blank values are ignored. Defaults to "X-Tenant-ID" if headerName is empty.
func NewHeaderResolver(headerName string) Resolver {
	if headerName == "" {
		headerName = DefaultHeader
	}

	return func(req *http.Request) string {
		return Normalize(req.Header.Get(headerName))
	}
}

// SubdomainOption configures NewSubdomainResolver.
type SubdomainOption func(*subdomainConfig)

type subdomainConfig struct {
	reserved map[string]struct{}
}

// WithReservedPrefixes replaces the default reserved prefix set.
func WithReservedPrefixes(prefixes ...string) SubdomainOption {
	return func(c *subdomainConfig) {
		c.reserved = make(map[string]struct{}, len(prefixes))
		for _, p := range prefixes {
			c.reserved[Normalize(p)] = struct{}{}
		}
	}
}

// NewSubdomainResolver takes the first label of a host with at least two labels.
// Reserved prefixes, localhost (subdomains of it included) and IP literals
// never resolve to a tenant.
func NewSubdomainResolver(opts ...SubdomainOption) Resolver {
	cfg := &subdomainConfig{}
	WithReservedPrefixes(DefaultReservedPrefixes...)(cfg)
	for _, opt := range opts {
		opt(cfg)
	}

	return func(req *http.Request) string {
		host := hostOnly(req.Host)
		if host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost") {
			return ""
		}
		if net.ParseIP(host) != nil {
			return ""
		}

		labels := strings.Split(host, ".")
		if len(labels) < 2 {
			return ""
		}

		subdomain := labels[0]
		if subdomain == "" {
			return ""
		}
		if _, reserved := cfg.reserved[subdomain]; reserved {
			return ""
		}
		return subdomain
	}
}

// NewCompositeResolver tries resolvers in order and returns the first
// non-empty result. When every strategy comes up empty it returns Master,
// so resolution always succeeds.
func NewCompositeResolver(resolvers ...Resolver) Resolver {
	return func(r *http.Request) string {
		for _, resolve := range resolvers {
			if resolve == nil {
				continue
			}
			if id := resolve(r); id != "" {
				return id
			}
		}
		return Master
	}
}

// DefaultResolver is the header, subdomain, master chain.
func DefaultResolver() Resolver {
	return NewCompositeResolver(
		NewHeaderResolver(DefaultHeader),
		NewSubdomainResolver(),
	)
}

// Normalize trims and lowercases a tenant identifier.
func Normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// ValidateID rejects identifiers that cannot name a tenant database.
func ValidateID(id string) error {
	if id == "" || len(id) > MaxTenantIDLength {
		return ErrInvalidIdentifier
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return ErrInvalidIdentifier
		}
	}
	return nil
}

// hostOnly strips the port, brackets and trailing dot and lowercases the host.
func hostOnly(hostport string) string {
	host := strings.TrimSpace(hostport)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	host = strings.TrimSuffix(host, ".")
	return strings.ToLower(host)
}
