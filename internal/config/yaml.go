package config

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits config input to prevent memory exhaustion (1MB).
const MaxInputSize = 1 << 20

var (
	errEmptyInput    = errors.New("empty config file")
	errInputTooLarge = errors.New("config file exceeds maximum size")
)

// decodeStrict parses YAML into v and rejects unknown fields.
func decodeStrict(data []byte, v any) error {
	if len(data) == 0 {
		return errEmptyInput
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", errInputTooLarge, len(data), MaxInputSize)
	}
	return yaml.UnmarshalWithOptions(data, v, yaml.Strict())
}
