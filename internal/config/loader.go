package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"flinktrack/pkg/logging"
)

const (
	userConfigDir  = ".config/flinktrack"
	configFileName = "config.yaml"
)

// osUserHomeDir is swapped out in tests.
var osUserHomeDir = os.UserHomeDir

// DefaultConfigPath returns the path of the per-user config file.
func DefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

// LoadConfig loads the configuration file at path over the defaults and
// validates the result.
//
// With an empty path the per-user config file is used, and a missing file
// yields the defaults. An explicitly named file must exist.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
	}

	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			logging.Info("ConfigLoader", "No config file found at %s, using defaults", path)
			return config, nil
		}
		return Config{}, NewConfigurationError(path, "", ErrorTypeIO, fmt.Sprintf("cannot read config file: %v", err))
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		ce := NewConfigurationError(path, "", ErrorTypeParse, "malformed YAML")
		ce.Details = err.Error()
		ce.LineNumber = lineOf(err)
		return Config{}, ce
	}

	if errs := config.Validate(); errs.HasErrors() {
		collection := NewConfigurationErrorCollection()
		for _, ve := range errs {
			collection.Add(NewConfigurationError(path, ve.Field, ErrorTypeValidation, ve.Message))
		}
		return Config{}, collection
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", path)
	return config, nil
}

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

// lineOf extracts the first line number mentioned in a YAML error.
func lineOf(err error) int {
	m := yamlLinePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
