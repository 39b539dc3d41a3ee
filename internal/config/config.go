package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at path, applies defaults and validates the
// result. Environment variables PERPSCAN_API_KEY / PERPSCAN_API_SECRET /
// PERPSCAN_TEST_API_KEY / PERPSCAN_TEST_API_SECRET override file credentials
// so secrets can stay out of the config file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(abs)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", abs, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PERPSCAN_API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv("PERPSCAN_API_SECRET"); v != "" {
		c.Exchange.APISecret = v
	}
	if v := os.Getenv("PERPSCAN_TEST_API_KEY"); v != "" {
		c.Exchange.TestAPIKey = v
	}
	if v := os.Getenv("PERPSCAN_TEST_API_SECRET"); v != "" {
		c.Exchange.TestAPISecret = v
	}
}

// ExampleYAML renders the default configuration as YAML, used by
// `perpscan -print-config` to bootstrap a config file.
func ExampleYAML() (string, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
