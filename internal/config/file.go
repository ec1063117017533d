package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// mergeFile overlays the YAML document at path onto c. A missing file is
// not an error; the defaults plus environment still form a usable config.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
