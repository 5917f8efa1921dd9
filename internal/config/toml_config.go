package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// LoadTOML loads configuration from a .relex.toml file in dir.
// Returns nil when there is no such file.
func LoadTOML(dir string) (*Config, error) {
	path := filepath.Join(dir, ".relex.toml")

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read .relex.toml: %w", err)
	}
	return parseTOML(content)
}

// parseTOML decodes content over the defaults, so omitted keys keep them
func parseTOML(content []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	return cfg, nil
}
