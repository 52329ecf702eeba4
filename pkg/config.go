package kaleido

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const historyFile = ".kaleido_history"

type Config struct {
	Prompt      string `yaml:"prompt"`
	HistoryFile string `yaml:"history_file"`
	Operators   string `yaml:"operators"`
	Color       bool   `yaml:"color"`
	Debug       bool   `yaml:"debug"`
}

func DefaultConfig() *Config {
	cfg := &Config{
		Prompt:    "ready> ",
		Operators: DefaultOperators,
		Color:     true,
	}

	if home, err := os.UserHomeDir(); err == nil {
		cfg.HistoryFile = filepath.Join(home, historyFile)
	}

	return cfg
}

// LoadConfig reads a YAML file on top of DefaultConfig. Keys missing from
// the file keep their default value.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}

	if _, err := cfg.OperatorTable(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}

	return cfg, nil
}

func (c *Config) OperatorTable() (*OperatorTable, error) {
	return NewOperatorTable(c.Operators)
}
