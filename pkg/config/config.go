// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads toonsync configuration from JSON, YAML or HCL files.
package config

import (
	"path/filepath"
	"time"

	"gitlab.com/tozd/go/errors"
)

// ESIConfig configures the identity lookup transport.
type ESIConfig struct {
	BaseURL        string `json:"base_url" yaml:"base_url"`
	Datasource     string `json:"datasource" yaml:"datasource"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	BatchLimit     int    `json:"batch_limit" yaml:"batch_limit"`
	FanOut         int    `json:"fan_out" yaml:"fan_out"`
}

// CacheConfig configures name-cache freshness.
type CacheConfig struct {
	MaxAgeMinutes       int `json:"max_age_minutes" yaml:"max_age_minutes"`
	FailureRetrySeconds int `json:"failure_retry_seconds" yaml:"failure_retry_seconds"`
}

// Config is the complete toonsync configuration.
type Config struct {
	// SettingsDir is the profile directory holding character settings
	// files. When empty, profiles are discovered under InstallRoot.
	SettingsDir string `json:"settings_dir" yaml:"settings_dir"`

	// InstallRoot is the EVE install's settings root. When empty, the
	// conventional Steam/Proton location is probed at runtime.
	InstallRoot string `json:"install_root" yaml:"install_root"`

	ESI   ESIConfig   `json:"esi" yaml:"esi"`
	Cache CacheConfig `json:"cache" yaml:"cache"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Validate checks the configuration and fills in defaults.
func (cfg *Config) Validate() error {
	if cfg.ESI.TimeoutSeconds < 0 {
		return errors.Errorf("esi.timeout_seconds must not be negative")
	}
	if cfg.ESI.BatchLimit < 0 {
		return errors.Errorf("esi.batch_limit must not be negative")
	}
	if cfg.ESI.FanOut < 0 {
		return errors.Errorf("esi.fan_out must not be negative")
	}
	if cfg.Cache.MaxAgeMinutes < 0 {
		return errors.Errorf("cache.max_age_minutes must not be negative")
	}
	if cfg.Cache.FailureRetrySeconds < 0 {
		return errors.Errorf("cache.failure_retry_seconds must not be negative")
	}

	if cfg.SettingsDir != "" {
		cfg.SettingsDir = filepath.Clean(cfg.SettingsDir)
	}
	if cfg.InstallRoot != "" {
		cfg.InstallRoot = filepath.Clean(cfg.InstallRoot)
	}

	cfg.applyDefaults()
	return nil
}

func (cfg *Config) applyDefaults() {
	if cfg.ESI.BaseURL == "" {
		cfg.ESI.BaseURL = "https://esi.evetech.net/latest"
	}
	if cfg.ESI.Datasource == "" {
		cfg.ESI.Datasource = "tranquility"
	}
	if cfg.ESI.TimeoutSeconds == 0 {
		cfg.ESI.TimeoutSeconds = 10
	}
	if cfg.ESI.BatchLimit == 0 {
		cfg.ESI.BatchLimit = 500
	}
	if cfg.ESI.FanOut == 0 {
		cfg.ESI.FanOut = 4
	}
	if cfg.Cache.MaxAgeMinutes == 0 {
		cfg.Cache.MaxAgeMinutes = 15
	}
	if cfg.Cache.FailureRetrySeconds == 0 {
		cfg.Cache.FailureRetrySeconds = 30
	}
}

// Timeout returns the ESI request timeout as a duration.
func (c ESIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MaxAge returns the resolved-name freshness window as a duration.
func (c CacheConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeMinutes) * time.Minute
}

// FailureRetry returns the failed-lookup retry window as a duration.
func (c CacheConfig) FailureRetry() time.Duration {
	return time.Duration(c.FailureRetrySeconds) * time.Second
}
