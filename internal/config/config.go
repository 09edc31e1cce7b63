// Package config provides layered configuration for the parquetize CLI.
//
// Values are merged from built-in defaults, an optional config file
// (parquetize.yaml, parquetize.yml, parquetize.toml or parquetize.json),
// PARQUETIZE_* environment variables and explicitly set flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// Config is the merged configuration.
type Config struct {
	Inputs     []string `koanf:"inputs"`
	OutputDir  string   `koanf:"output_dir"`
	Engines    []string `koanf:"engines"`    // empty = default preference
	Encodings  []string `koanf:"encodings"`  // empty = all supported, in order
	Delimiters []string `koanf:"delimiters"` // empty = ";", ",", auto
	HasHeader  bool     `koanf:"has_header"`
	NullValues []string `koanf:"null_values"` // empty = parser defaults
	Manifest   string   `koanf:"manifest"` // JSON-lines path, "-" for stdout, "" = off
	LogLevel   string   `koanf:"log_level"`
	LogFormat  string   `koanf:"log_format"`
}

// Default values.
const (
	DefaultOutputDir = "public/parquet"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// DefaultInputs are converted when no file is named on the command line.
var DefaultInputs = []string{"PARTICIPANTES_2024.csv", "RESULTADOS_2024.csv"}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"inputs":     append([]string(nil), DefaultInputs...),
		"output_dir": DefaultOutputDir,
		"has_header": true,
		"manifest":   "",
		"log_level":  DefaultLogLevel,
		"log_format": DefaultLogFormat,
	}
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Inputs:    append([]string(nil), DefaultInputs...),
		OutputDir: DefaultOutputDir,
		HasHeader: true,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

// Validate checks values that cannot be checked by the consumers.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, errors.New("output_dir must not be empty"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q: want text or json", c.LogFormat))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q: want debug, info, warn or error", c.LogLevel))
	}
	return errors.Join(errs...)
}
