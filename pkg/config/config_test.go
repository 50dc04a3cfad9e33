package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "foreman", cfg.ServiceName)
	assert.Equal(t, AuthModeToken, cfg.AuthMode)
	assert.True(t, cfg.ExecutionEnabled)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreman.yaml")
	content := `
listen_addr: ":9090"
data_dir: /tmp/foreman-test
service_name: foreman-test
auth_mode: none
execution_enabled: false
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/foreman-test", cfg.DataDir)
	assert.Equal(t, "foreman-test", cfg.ServiceName)
	assert.Equal(t, AuthModeNone, cfg.AuthMode)
	assert.False(t, cfg.ExecutionEnabled)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreman.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":9090\"\nauth_mode: none\n"), 0600))

	t.Setenv("FOREMAN_LISTEN_ADDR", ":7070")
	t.Setenv("FOREMAN_EXECUTION_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.False(t, cfg.ExecutionEnabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "token mode requires token",
			mutate:  func(c *Config) { c.AuthMode = AuthModeToken; c.VerificationToken = "" },
			wantErr: "verification_token",
		},
		{
			name:    "identity mode requires audience",
			mutate:  func(c *Config) { c.AuthMode = AuthModeIdentityToken },
			wantErr: "expected_audience",
		},
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.AuthMode = "bogus" },
			wantErr: "unknown auth_mode",
		},
		{
			name:    "missing data dir",
			mutate:  func(c *Config) { c.AuthMode = AuthModeNone; c.DataDir = "" },
			wantErr: "data_dir",
		},
		{
			name:   "none mode valid",
			mutate: func(c *Config) { c.AuthMode = AuthModeNone },
		},
		{
			name:   "token mode valid with token",
			mutate: func(c *Config) { c.VerificationToken = "secret" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
