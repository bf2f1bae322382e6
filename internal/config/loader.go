package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding configuration keys,
// e.g. BOT_TELEGRAM_TOKEN for telegram.token.
const EnvPrefix = "BOT"

// LoadConfig loads configuration from:
//  1. default values
//  2. a .env file in the working directory, if present
//  3. the YAML file at path, if present
//  4. BOT_* environment variables
//
// The result is validated before it is returned.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: failed to load .env file: %v", ErrConfiguration, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, path, err)
			}
			// Config file not found is okay, defaults and environment apply
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks struct constraints and the task schedules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	for name, task := range c.Scheduler.Tasks {
		if !task.Enabled {
			continue
		}
		if _, err := NormalizeSchedule(task.Schedule); err != nil {
			return fmt.Errorf("%w: task %q: %v", ErrConfiguration, name, err)
		}
	}

	return nil
}
