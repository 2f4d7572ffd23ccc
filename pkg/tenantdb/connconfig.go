package tenantdb

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// DefaultPort is used when a connection config leaves Port at zero.
const DefaultPort = 5432

// ConnectionConfig describes how to reach one tenant database.
// Password is expected in plain text by the time it reaches a Factory.
type ConnectionConfig struct {
	Host        string            `json:"host" yaml:"host"`
	Port        int               `json:"port" yaml:"port"`
	Database    string            `json:"database" yaml:"database"`
	Username    string            `json:"username" yaml:"username"`
	Password    string            `json:"password" yaml:"password"`
	MaxPoolSize *int32            `json:"max_pool_size,omitempty" yaml:"max_pool_size,omitempty"`
	Params      map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Validate reports missing or out of range fields.
func (c ConnectionConfig) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Database == "" {
		errs = append(errs, errors.New("database is required"))
	}
	if c.Username == "" {
		errs = append(errs, errors.New("username is required"))
	}
	if c.MaxPoolSize != nil && *c.MaxPoolSize < 1 {
		errs = append(errs, fmt.Errorf("max pool size %d must be positive", *c.MaxPoolSize))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConnectionConfig}, errs...)...)
	}
	return nil
}

// PoolSize returns the tenant override, or def when there is none.
func (c ConnectionConfig) PoolSize(def int32) int32 {
	if c.MaxPoolSize != nil && *c.MaxPoolSize > 0 {
		return *c.MaxPoolSize
	}
	return def
}

// ConnString builds a postgres:// URL. Tenant params override defaults.
func (c ConnectionConfig) ConnString(defaults url.Values) string {
	c = c.WithDefaults()

	q := url.Values{}
	for k, v := range defaults {
		q[k] = append([]string(nil), v...)
	}
	for k, v := range c.Params {
		q.Set(k, v)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Redacted returns a copy with the password masked.
func (c ConnectionConfig) Redacted() ConnectionConfig {
	if c.Password != "" {
		c.Password = "xxxxx"
	}
	return c
}

// WithDefaults returns a copy with a zero Port set to DefaultPort.
func (c ConnectionConfig) WithDefaults() ConnectionConfig {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	return c
}

// String never prints the password.
func (c ConnectionConfig) String() string {
	c = c.WithDefaults()
	return fmt.Sprintf("%s@%s/%s", c.Username, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), c.Database)
}
