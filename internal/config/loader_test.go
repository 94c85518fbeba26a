package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so tests start from defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ZOOMHOOK_ENV", "LOG_LEVEL", "ZOOM_VERIFICATION_TOKEN",
		"BASIC_AUTH_USERNAME", "BASIC_AUTH_PASSWORD",
		"CUSTOM_HEADER_NAME", "CUSTOM_HEADER_VALUE",
		"MAX_BODY_SIZE", "READ_TIMEOUT", "WRITE_TIMEOUT", "SHUTDOWN_TIMEOUT",
		"ZOOM_VERIFY_SIGNATURE", "ZOOM_SIGNATURE_TOLERANCE", "METRICS_ENABLED",
		"METRICS_EXPORT_INTERVAL",
		"ZOOMHOOK_CONFIG",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zoomhook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, ":3000", cfg.ListenAddr())
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "", cfg.VerificationToken)
	assert.Equal(t, int64(1024*1024), cfg.MaxBodySize.Int64())
	assert.Equal(t, 10*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 5*time.Minute, cfg.SignatureTolerance)
	assert.False(t, cfg.VerifySignature)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, time.Minute, cfg.MetricsInterval)
	assert.False(t, cfg.BasicAuthEnabled())
	assert.False(t, cfg.CustomHeaderEnabled())
	assert.Empty(t, cfg.SourceFile)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("ZOOM_VERIFICATION_TOKEN", "mysecret")
	t.Setenv("BASIC_AUTH_USERNAME", "alice")
	t.Setenv("BASIC_AUTH_PASSWORD", "secret")
	t.Setenv("CUSTOM_HEADER_NAME", "X-Token")
	t.Setenv("CUSTOM_HEADER_VALUE", "t0k3n")
	t.Setenv("MAX_BODY_SIZE", "64KB")
	t.Setenv("ZOOM_VERIFY_SIGNATURE", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "mysecret", cfg.VerificationToken)
	assert.True(t, cfg.BasicAuthEnabled())
	assert.True(t, cfg.CustomHeaderEnabled())
	assert.Equal(t, int64(64*1024), cfg.MaxBodySize.Int64())
	assert.True(t, cfg.VerifySignature)
}

func TestLoad_HalfConfiguredPairsDisableFeature(t *testing.T) {
	clearEnv(t)
	t.Setenv("BASIC_AUTH_USERNAME", "alice")
	t.Setenv("CUSTOM_HEADER_VALUE", "t0k3n")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.BasicAuthEnabled())
	assert.False(t, cfg.CustomHeaderEnabled())
	assert.Len(t, cfg.Warnings(), 3)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOOK_SECRET", "from-interpolation")

	path := writeConfig(t, `
port: 4000
environment: production
log_level: debug
zoom:
  verification_token: ${HOOK_SECRET}
  verify_signature: true
  signature_tolerance: 2m
basic_auth:
  username: alice
  password: "pa:ss"
custom_header:
  name: X-Token
  value: t0k3n
server:
  max_body_size: 2MB
  read_timeout: 3s
metrics:
  enabled: true
  export_interval: 15s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "from-interpolation", cfg.VerificationToken)
	assert.True(t, cfg.VerifySignature)
	assert.Equal(t, 2*time.Minute, cfg.SignatureTolerance)
	assert.Equal(t, "alice", cfg.BasicAuthUsername)
	assert.Equal(t, "pa:ss", cfg.BasicAuthPassword)
	assert.Equal(t, "X-Token", cfg.CustomHeaderName)
	assert.Equal(t, int64(2*1024*1024), cfg.MaxBodySize.Int64())
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout, "absent keys keep their defaults")
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, 15*time.Second, cfg.MetricsInterval)
	assert.Equal(t, path, cfg.SourceFile)
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ZOOM_VERIFICATION_TOKEN", "env-secret")

	path := writeConfig(t, `
port: 4000
zoom:
  verification_token: file-secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "env-secret", cfg.VerificationToken)
}

func TestLoad_UnresolvedInterpolationIsKept(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
zoom:
  verification_token: ${ZOOMHOOK_TEST_MISSING_VAR}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "${ZOOMHOOK_TEST_MISSING_VAR}", cfg.VerificationToken)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		yaml string
	}{
		{name: "port out of range", env: map[string]string{"PORT": "70000"}},
		{name: "unknown log level", env: map[string]string{"LOG_LEVEL": "chatty"}},
		{name: "bad body size", env: map[string]string{"MAX_BODY_SIZE": "lots"}},
		{name: "negative timeout in file", yaml: "server:\n  read_timeout: -1s\n"},
		{name: "malformed yaml", yaml: "port: [\n"},
		{name: "zero body size in file", yaml: "server:\n  max_body_size: 0\n"},
		{name: "zero metrics interval", yaml: "metrics:\n  enabled: true\n  export_interval: 0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.yaml != "" {
				path = writeConfig(t, tt.yaml)
			}

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestResolvePath(t *testing.T) {
	clearEnv(t)

	assert.Equal(t, "explicit.yaml", ResolvePath("explicit.yaml"))

	t.Setenv("ZOOMHOOK_CONFIG", "/etc/zoomhook/zoomhook.yaml")
	assert.Equal(t, "/etc/zoomhook/zoomhook.yaml", ResolvePath(""))

	os.Unsetenv("ZOOMHOOK_CONFIG")
	t.Chdir(t.TempDir())
	assert.Equal(t, "", ResolvePath(""))

	require.NoError(t, os.WriteFile(DefaultConfigFile, []byte("port: 3000\n"), 0600))
	assert.Equal(t, DefaultConfigFile, ResolvePath(""))
}

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1048576", 1048576, false},
		{"1KB", 1024, false},
		{"2mb", 2 * 1024 * 1024, false},
		{" 1GB ", 1024 * 1024 * 1024, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"MB", 0, true},
		{"9223372036854775807GB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseByteSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
