package logger

// Config selects the logger preset from the environment.
type Config struct {
	Env     string `env:"APP_ENV" envDefault:"development"`      // Env is "development", "staging" or "production".
	Service string `env:"APP_NAME" envDefault:"humano-router"`  // Service is added to every record.
	Level   string `env:"LOG_LEVEL"`                            // Level overrides the preset level: debug, info, warn or error.
}

// Options turns the config into logger options.
func (c Config) Options() []Option {
	opts := []Option{WithEnvironment(c.Env, c.Service)}
	if c.Level != "" {
		opts = append(opts, WithLevelName(c.Level))
	}
	return opts
}
