package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// mergeFile overlays values from a YAML file onto c. Keys absent from the
// file keep their current value.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &ConfigurationError{Field: path, Reason: err.Error()}
	}
	c.LogLevel = parseLogLevel(c.LogLevelName)
	return nil
}
