package config

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits config input to prevent memory exhaustion (1MB).
var MaxInputSize = 1 << 20

var (
	errEmptyInput    = errors.New("empty config")
	errInputTooLarge = errors.New("config exceeds maximum size")
)

// decodeStrict parses YAML into v, rejecting unknown fields so typos in
// keys fail loudly instead of being ignored.
func decodeStrict(data []byte, v any) error {
	if len(data) == 0 {
		return errEmptyInput
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", errInputTooLarge, len(data), MaxInputSize)
	}
	return yaml.UnmarshalWithOptions(data, v, yaml.Strict())
}

// Marshal renders cfg as YAML, e.g. for printing the effective settings.
func Marshal(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return out, nil
}
