package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type options struct {
	files   []string
	environ map[string]string
	prefix  string
}

// Option configures Load.
type Option func(*options)

// WithEnvFiles reads the given .env files. Missing files are skipped.
// Earlier files win over later ones and the environment wins over all files.
func WithEnvFiles(files ...string) Option {
	return func(o *options) { o.files = files }
}

// WithEnvironment replaces the process environment as the source of values.
func WithEnvironment(environ map[string]string) Option {
	return func(o *options) { o.environ = environ }
}

// WithPrefix only considers variables starting with prefix, stripped before matching tags.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// Load parses environment variables into v, a pointer to a struct with env tags.
// Without WithEnvFiles it reads ".env" from the working directory when present.
//
//	var cfg struct {
//		DB pg.Config
//		HTTP httpserver.Config
//	}
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load(v any, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &options{files: []string{".env"}}
	for _, opt := range opts {
		opt(o)
	}

	environ := o.environ
	if environ == nil {
		environ = processEnv()
	} else {
		environ = copyEnv(environ)
	}

	for _, file := range o.files {
		values, err := godotenv.Read(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return errors.Join(ErrReadingEnvFile, fmt.Errorf("%s: %w", file, err))
		}
		for k, val := range values {
			if _, ok := environ[k]; !ok {
				environ[k] = val
			}
		}
	}

	if err := env.ParseWithOptions(v, env.Options{Environment: environ, Prefix: o.prefix}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on error.
func MustLoad(v any, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

func processEnv() map[string]string {
	environ := os.Environ()
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}

func copyEnv(src map[string]string) map[string]string {
	m := make(map[string]string, len(src))
	for k, v := range src {
		m[k] = v
	}
	return m
}
