package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadFile overlays a YAML configuration file onto cfg using Koanf.
// Only keys present in the file are overridden; the result is validated.
//
// Error cases:
//   - File not found or cannot be read
//   - Invalid YAML syntax
//   - Validation failure of the merged configuration
func LoadFile(cfg *Config, filepath string) error {
	k := koanf.New(".")

	if err := k.Load(file.Provider(filepath), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load config from %q: %w", filepath, err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return fmt.Errorf("failed to parse config from %q: %w", filepath, err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed for %q: %w", filepath, err)
	}

	return nil
}
