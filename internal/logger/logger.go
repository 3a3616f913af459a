package logger

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Config controls how the service logger is built.
type Config struct {
	Level       string `json:"level,omitempty" validate:"oneof=debug info warn error"`
	Env         string `json:"env,omitempty" validate:"oneof=development staging production"`
	ServiceName string `json:"serviceName,omitempty"`
}

// New builds the process-wide zerolog logger. Development gets a console
// writer on stderr; staging and production log JSON to stdout.
func New(cfg Config) (zerolog.Logger, error) {
	cfg.setDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return zerolog.Logger{}, fmt.Errorf("logger config validation error: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, err
	}
	zerolog.SetGlobalLevel(level)

	var logger zerolog.Logger
	if cfg.Env == "development" {
		writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		logger = zerolog.New(writer)
	} else {
		logger = zerolog.New(os.Stdout)
	}

	logger = logger.With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("env", cfg.Env).
		Logger()

	return logger, nil
}

func (c *Config) setDefaults() {
	if c.Env == "" {
		c.Env = "production"
	}
	if c.Level == "" {
		if c.Env == "development" {
			c.Level = "debug"
		} else {
			c.Level = "info"
		}
	}
	if c.ServiceName == "" {
		c.ServiceName = "courtside"
	}
}
