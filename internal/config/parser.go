package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/clusterops/maintenanced/pkg/actionerrors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Load reads a configuration file from disk, applies defaults, validates it,
// and returns the resulting model.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, actionerrors.Wrap(actionerrors.CodeBadParameter, fmt.Sprintf("reading config %s", path), err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, actionerrors.Wrap(actionerrors.CodeBadParameter,
			fmt.Sprintf("parsing config %s (line %d)", path, extractLine(err)), err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a Config with every optional field at its zero-impact
// default: no workers started, no backoff, no eviction.
func Default() *Config {
	return &Config{
		Version: "1",
		Log:     LogConfig{Level: "info"},
	}
}

// Validate runs struct tag validation and, if any field fails, returns a
// CodeBadParameter error wrapping the validator's error for all failing
// fields.
func Validate(cfg *Config) error {
	if err := GetValidator().Struct(cfg); err != nil {
		return actionerrors.Wrap(actionerrors.CodeBadParameter, "invalid configuration", err)
	}
	return nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}
	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}
	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}
	return line
}
