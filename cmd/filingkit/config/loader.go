// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// DefaultPath returns ~/.filingkit/filingkit.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".filingkit", "filingkit.yaml"), nil
}

// Load reads the config at path, creating a default file on first run.
// An empty path uses DefaultPath.
func Load(path string) (Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return Config{}, err
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("First run detected, creating the config at %s\n", path)
		if err := createDefault(path); err != nil {
			return Config{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read the config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse the config file: %w", err)
	}
	applyEnvOverrides(&cfg)
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config at %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnvOverrides lets deployments repoint the data dir and backend
// without editing the file. Environment wins over the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FILINGKIT_DATA_DIR"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("FILINGKIT_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
