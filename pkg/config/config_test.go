package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		content     string
		check       func(t *testing.T, cfg *Config)
		wantErr     bool
		errContains string
	}{
		{
			name:     "yaml",
			filename: "toonsync.yaml",
			content: `
settings_dir: /eve/settings_Default
esi:
  datasource: singularity
  fan_out: 2
cache:
  max_age_minutes: 60
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, filepath.Clean("/eve/settings_Default"), cfg.SettingsDir)
				assert.Equal(t, "singularity", cfg.ESI.Datasource)
				assert.Equal(t, 2, cfg.ESI.FanOut)
				assert.Equal(t, 60, cfg.Cache.MaxAgeMinutes)
				// Defaults fill the rest.
				assert.Equal(t, "https://esi.evetech.net/latest", cfg.ESI.BaseURL)
				assert.Equal(t, 500, cfg.ESI.BatchLimit)
				assert.Equal(t, 30, cfg.Cache.FailureRetrySeconds)
			},
		},
		{
			name:     "hcl",
			filename: "toonsync.hcl",
			content: `
install_root = "/eve"

esi {
  batch_limit = 100
}
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, filepath.Clean("/eve"), cfg.InstallRoot)
				assert.Equal(t, 100, cfg.ESI.BatchLimit)
				assert.Equal(t, "tranquility", cfg.ESI.Datasource)
			},
		},
		{
			name:     "json",
			filename: "toonsync.json",
			content:  `{"settings_dir": "/eve/settings_Default", "esi": {"timeout_seconds": 5}}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 5, cfg.ESI.TimeoutSeconds)
			},
		},
		{
			name:     "dot_toonsync_yaml",
			filename: ".toonsync",
			content:  `settings_dir: /eve/settings_Default`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, filepath.Clean("/eve/settings_Default"), cfg.SettingsDir)
			},
		},
		{
			name:     "dot_toonsync_hcl",
			filename: ".toonsync",
			content:  `settings_dir = "/eve/settings_Default"`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, filepath.Clean("/eve/settings_Default"), cfg.SettingsDir)
			},
		},
		{
			name:        "unsupported_extension",
			filename:    "toonsync.toml",
			content:     `settings_dir = "/eve"`,
			wantErr:     true,
			errContains: "unsupported",
		},
		{
			name:        "negative_fan_out",
			filename:    "toonsync.yaml",
			content:     "esi:\n  fan_out: -1\n",
			wantErr:     true,
			errContains: "fan_out",
		},
		{
			name:        "garbage",
			filename:    "toonsync.json",
			content:     `{{{`,
			wantErr:     true,
			errContains: "parsing JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.filename, tt.content)
			cfg, err := LoadConfig(path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfigOrDefault(t *testing.T) {
	cfg, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), ".toonsync"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDefaultDurations(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "10s", cfg.ESI.Timeout().String())
	assert.Equal(t, "15m0s", cfg.Cache.MaxAge().String())
	assert.Equal(t, "30s", cfg.Cache.FailureRetry().String())
}
