package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "pagelens", cfg.Database.Database)
				assert.Equal(t, 30*time.Second, cfg.Capture.Timeout)
				assert.Equal(t, 60*time.Second, cfg.Evaluator.Timeout)
				assert.Equal(t, "gpt-4-turbo", cfg.Evaluator.Model)
				assert.Equal(t, 5, cfg.History.Limit)
				assert.Equal(t, "audit-service", cfg.App.Name)
			}
		})
	}
}

func TestLoad_APIKeyFromEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-key")

	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "sk-test-key", cfg.Evaluator.APIKey)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8080},
			Database: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "pagelens",
			},
			Capture:   CaptureConfig{Timeout: 30 * time.Second},
			Evaluator: EvaluatorConfig{Timeout: 60 * time.Second},
			History:   HistoryConfig{Limit: 5},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:   "no database host disables durable backend",
			mutate: func(c *Config) { c.Database = DatabaseConfig{} },
		},
		{
			name:      "invalid server port",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "invalid database port with host set",
			mutate:    func(c *Config) { c.Database.Port = 70000 },
			wantErr:   true,
			errString: "invalid database port",
		},
		{
			name:      "missing database name with host set",
			mutate:    func(c *Config) { c.Database.Database = "" },
			wantErr:   true,
			errString: "database name is required",
		},
		{
			name:      "negative capture timeout",
			mutate:    func(c *Config) { c.Capture.Timeout = -time.Second },
			wantErr:   true,
			errString: "capture timeout",
		},
		{
			name:      "negative history limit",
			mutate:    func(c *Config) { c.History.Limit = -1 },
			wantErr:   true,
			errString: "history limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
