package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/steveyegge/sizelint/internal/diag"
)

// ApplyEnv overrides configuration from environment variables.
//
// Environment variables:
//   - SIZELINT_MAX_FILE_SIZE: global error threshold, e.g. "25MB"
//   - SIZELINT_WARN_FILE_SIZE: global warning threshold
//   - SIZELINT_FAIL_ON_WARN: treat warnings as failures (true/false)
//   - SIZELINT_RESPECT_GITIGNORE: skip ignored files (true/false)
//   - SIZELINT_HISTORY: mine git history in range mode (true/false)
//   - SIZELINT_GIT: default revision range
//
// Returns an error if any variable has an invalid value.
func (c *Config) ApplyEnv() error {
	if err := parseEnvString("SIZELINT_MAX_FILE_SIZE", &c.MaxFileSize); err != nil {
		return err
	}
	if err := parseEnvString("SIZELINT_WARN_FILE_SIZE", &c.WarnFileSize); err != nil {
		return err
	}
	if err := parseEnvBool("SIZELINT_FAIL_ON_WARN", &c.FailOnWarn); err != nil {
		return err
	}
	if err := parseEnvBool("SIZELINT_RESPECT_GITIGNORE", &c.RespectGitignore); err != nil {
		return err
	}
	if err := parseEnvBool("SIZELINT_HISTORY", &c.History); err != nil {
		return err
	}
	return parseEnvString("SIZELINT_GIT", &c.Git)
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest **bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use configured value
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return &diag.Error{
			Code:    diag.CodeConfigInvalid,
			Message: fmt.Sprintf("Invalid configuration: %s = %q", key, value),
			Hint:    "Use true or false",
			Err:     err,
		}
	}
	*dest = &parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	*dest = value
	return nil
}

// EnvSummary lists the sizelint variables currently set, for debug logging.
func EnvSummary() []string {
	var set []string
	for _, key := range []string{
		"SIZELINT_MAX_FILE_SIZE",
		"SIZELINT_WARN_FILE_SIZE",
		"SIZELINT_FAIL_ON_WARN",
		"SIZELINT_RESPECT_GITIGNORE",
		"SIZELINT_HISTORY",
		"SIZELINT_GIT",
	} {
		if v, ok := os.LookupEnv(key); ok {
			set = append(set, fmt.Sprintf("%s=%s", key, v))
		}
	}
	return set
}
