//go:build integration

package integration

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	Enabled    bool
	BaseURL    string
	RedisHost  string
	BinaryPath string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	baseURL := os.Getenv("JSONPH_INTEGRATION_BASE_URL")
	if baseURL == "" {
		baseURL = "https://jsonplaceholder.typicode.com"
	}

	return &TestConfig{
		Enabled:    os.Getenv("JSONPH_INTEGRATION") == "true",
		BaseURL:    baseURL,
		RedisHost:  os.Getenv("REDIS_HOST"),
		BinaryPath: getBinaryPath(),
		Verbose:    os.Getenv("JSONPH_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the jsonph binary.
func getBinaryPath() string {
	if path := os.Getenv("JSONPH_BINARY_PATH"); path != "" {
		return path
	}

	// Try common locations
	candidates := []string{
		"../../jsonph",
		"./jsonph",
		"../jsonph",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "jsonph" // Fallback to PATH
}

// SkipIfDisabled skips the test unless JSONPH_INTEGRATION=true.
func (config *TestConfig) SkipIfDisabled(t *testing.T) {
	t.Helper()

	if !config.Enabled {
		t.Skip("JSONPH_INTEGRATION not set, skipping integration test")
	}
}

// SkipIfMissingBinary skips the test when the CLI binary cannot be found.
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("jsonph binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// SkipIfNoRedis skips the test when REDIS_HOST is not set.
func (config *TestConfig) SkipIfNoRedis(t *testing.T) {
	t.Helper()

	if config.RedisHost == "" {
		t.Skip("REDIS_HOST not set, skipping Redis integration test")
	}
}

// CommandRunner provides utilities for running jsonph commands.
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config: config,
		t:      t,
	}
}

// Run executes a jsonph command against the configured base URL and returns
// its output.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--base-url", runner.config.BaseURL}, args...)

	cmd := exec.Command(runner.config.BinaryPath, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}
