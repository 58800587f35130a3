// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the filingkit YAML configuration. The config is a
// plain value passed to the composition root; there is no global instance.
package config

import (
	"os"
	"path/filepath"
)

// Config is the root configuration, stored at ~/.filingkit/filingkit.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend" validate:"required"`
	Storage  StorageConfig  `yaml:"storage"`
	Transfer TransferConfig `yaml:"transfer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig controls the local HTTP surface the mobile shell talks to.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// BackendConfig points at the filing backend.
type BackendConfig struct {
	BaseURL string `yaml:"base_url" validate:"required,url"`
	// Token is the bearer token used for backend calls and polling. In a
	// real deployment the shell injects this per session; a configured
	// value is a development convenience.
	Token  string `yaml:"token,omitempty"`
	UserID string `yaml:"user_id,omitempty"`
}

// StorageConfig controls local persistence.
type StorageConfig struct {
	// Path is the badger directory. Empty means ~/.filingkit/data.
	Path string `yaml:"path,omitempty"`
	// InMemory disables persistence entirely (tests, demos).
	InMemory bool `yaml:"in_memory,omitempty"`
}

// TransferConfig controls document uploads.
type TransferConfig struct {
	Bucket string `yaml:"bucket" validate:"required"`
	// ServiceAccountKeyPath is optional; empty uses application default
	// credentials.
	ServiceAccountKeyPath string `yaml:"service_account_key_path,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// Dir enables file logging when non-empty.
	Dir string `yaml:"dir,omitempty"`
}

// DefaultConfig returns the config written on first run.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr: "127.0.0.1:8480",
		},
		Backend: BackendConfig{
			BaseURL: "https://api.alpinetax.example/api",
		},
		Storage: StorageConfig{
			Path: defaultDataDir(),
		},
		Transfer: TransferConfig{
			Bucket: "alpinetax-client-uploads",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".filingkit/data"
	}
	return filepath.Join(home, ".filingkit", "data")
}
