package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/sizelint/internal/diag"
)

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:    "no environment variables keeps configuration",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "10MB", cfg.MaxFileSize)
				assert.False(t, cfg.FailOnWarnings())
				assert.True(t, cfg.HistoryEnabled())
			},
		},
		{
			name: "overrides",
			envVars: map[string]string{
				"SIZELINT_MAX_FILE_SIZE":     "25MB",
				"SIZELINT_WARN_FILE_SIZE":    "12MB",
				"SIZELINT_FAIL_ON_WARN":      "true",
				"SIZELINT_RESPECT_GITIGNORE": "0",
				"SIZELINT_HISTORY":           "false",
				"SIZELINT_GIT":               "origin/main",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "25MB", cfg.MaxFileSize)
				assert.Equal(t, "12MB", cfg.WarnFileSize)
				assert.True(t, cfg.FailOnWarnings())
				assert.False(t, cfg.GitignoreRespected())
				assert.False(t, cfg.HistoryEnabled())
				assert.Equal(t, "origin/main", cfg.Git)
			},
		},
		{
			name:    "invalid bool",
			envVars: map[string]string{"SIZELINT_FAIL_ON_WARN": "sometimes"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{
				"SIZELINT_MAX_FILE_SIZE", "SIZELINT_WARN_FILE_SIZE", "SIZELINT_FAIL_ON_WARN",
				"SIZELINT_RESPECT_GITIGNORE", "SIZELINT_HISTORY", "SIZELINT_GIT",
			} {
				t.Setenv(key, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := Default()
			err := cfg.ApplyEnv()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, diag.CodeConfigInvalid, diag.CodeOf(err))
				assert.Equal(t, "Use true or false", diag.HintOf(err))
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestEnvSummary(t *testing.T) {
	t.Setenv("SIZELINT_GIT", "main")
	assert.Contains(t, EnvSummary(), "SIZELINT_GIT=main")
}
