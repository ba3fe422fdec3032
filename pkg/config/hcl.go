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

package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

// loadHCL parses the config from HCL
func loadHCL(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	// HCL schema
	type hclConfig struct {
		SettingsDir string `hcl:"settings_dir,optional"`
		InstallRoot string `hcl:"install_root,optional"`
		ESI         *struct {
			BaseURL        string `hcl:"base_url,optional"`
			Datasource     string `hcl:"datasource,optional"`
			TimeoutSeconds int    `hcl:"timeout_seconds,optional"`
			BatchLimit     int    `hcl:"batch_limit,optional"`
			FanOut         int    `hcl:"fan_out,optional"`
		} `hcl:"esi,block"`
		Cache *struct {
			MaxAgeMinutes       int `hcl:"max_age_minutes,optional"`
			FailureRetrySeconds int `hcl:"failure_retry_seconds,optional"`
		} `hcl:"cache,block"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{
		SettingsDir: hclCfg.SettingsDir,
		InstallRoot: hclCfg.InstallRoot,
	}
	if hclCfg.ESI != nil {
		cfg.ESI = ESIConfig{
			BaseURL:        hclCfg.ESI.BaseURL,
			Datasource:     hclCfg.ESI.Datasource,
			TimeoutSeconds: hclCfg.ESI.TimeoutSeconds,
			BatchLimit:     hclCfg.ESI.BatchLimit,
			FanOut:         hclCfg.ESI.FanOut,
		}
	}
	if hclCfg.Cache != nil {
		cfg.Cache = CacheConfig{
			MaxAgeMinutes:       hclCfg.Cache.MaxAgeMinutes,
			FailureRetrySeconds: hclCfg.Cache.FailureRetrySeconds,
		}
	}

	return cfg, nil
}
