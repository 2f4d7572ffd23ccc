// Package config loads typed configuration from environment variables.
//
// Struct fields are mapped with github.com/caarlos0/env tags. Values missing
// from the environment may come from .env files read with
// github.com/joho/godotenv; the environment always takes precedence, so a
// deployment can override anything a checked-in .env file sets.
//
//	type Config struct {
//		Addr string        `env:"HTTP_ADDR" envDefault:":8080"`
//		TTL  time.Duration `env:"CACHE_TTL" envDefault:"5m"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg, config.WithEnvFiles(".env.local", ".env")); err != nil {
//		return err
//	}
package config
