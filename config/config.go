// Package config loads the drivesim configuration from a YAML or JSON file
// with K_ prefixed environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/drivesim/core/metrics"
	"github.com/kilianp07/drivesim/core/model"
	"github.com/kilianp07/drivesim/infra/mqtt"
)

type Config struct {
	Sim     model.SimParams `json:"sim"`
	MQTT    mqtt.Config     `json:"mqtt"`
	Metrics metrics.Config  `json:"metrics"`
	Logging LoggingConfig   `json:"logging"`
	Export  ExportConfig    `json:"export"`
	API     APIConfig       `json:"api"`
	// Workers bounds concurrent runs in a batch.
	Workers int `json:"workers"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{Sim: model.DefaultSimParams()}
	cfg.finish()
	return cfg
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	// Unset solver keys keep their reference values.
	cfg := Config{Sim: model.DefaultSimParams()}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.finish()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finish() {
	c.Sim.SetDefaults()
	c.Logging.SetDefaults()
	c.Export.SetDefaults()
	c.API.SetDefaults()
	if c.MQTT.Enabled {
		c.MQTT.SetDefaults()
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
}

func (c *Config) Validate() error {
	if err := c.Sim.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Export.Validate(); err != nil {
		return err
	}
	return c.MQTT.Validate()
}
