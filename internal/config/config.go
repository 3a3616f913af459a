package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mpratt21/courtside/internal/models"
)

// Config holds runtime settings for the scoring server. Values come from
// environment variables; call godotenv.Load before NewFromEnv in dev.
type Config struct {
	Environment string
	LogLevel    string

	HTTPPort int
	NATSURL  string

	// PresetsPath points at an optional YAML file of extra rule presets.
	PresetsPath string

	CORSAllowedOrigins []string
}

func NewFromEnv() Config {
	return Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		HTTPPort:           getEnvAsInt("HTTP_PORT", 8080),
		NATSURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		PresetsPath:        getEnv("RULE_PRESETS_PATH", ""),
		CORSAllowedOrigins: []string{getEnv("CORS_ALLOWED_ORIGIN", "*")},
	}
}

// RulePreset is a named game configuration from the presets file.
type RulePreset struct {
	Name   string            `yaml:"name"`
	Config models.GameConfig `yaml:"config"`
}

type presetsFile struct {
	Presets []RulePreset `yaml:"presets"`
}

// LoadRulePresets parses the YAML presets file. The built-in nba and
// college presets are always available; the file adds or overrides by name.
func LoadRulePresets(path string) (map[string]models.GameConfig, error) {
	presets := map[string]models.GameConfig{
		"nba":     models.DefaultNBAConfig(),
		"college": models.DefaultCollegeConfig(),
	}
	if path == "" {
		return presets, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}

	var file presetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse presets file: %w", err)
	}

	for _, p := range file.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("preset with empty name in %s", path)
		}
		presets[p.Name] = p.Config
	}
	return presets, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
