package utils

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// UpdateViperConfig sets a single key and rewrites the config file with the
// full merged settings.
func UpdateViperConfig(key string, value any, configFile string) error {
	viper.Set(key, value)

	updated, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("failed to marshal config to yaml: %w", err)
	}

	if err := os.WriteFile(configFile, updated, 0o644); err != nil {
		return fmt.Errorf("failed to update config file: %w", err)
	}

	return nil
}
