package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide zoomhook configuration. It is built once at
// startup and passed by value; nothing mutates it afterwards.
type Config struct {
	Port        int    `env:"PORT,default=3000"`
	Environment string `env:"ZOOMHOOK_ENV,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=INFO"`

	// VerificationToken is the Zoom secret token used as the HMAC key.
	VerificationToken string `env:"ZOOM_VERIFICATION_TOKEN"`

	// Basic auth is enabled only when both halves are set.
	BasicAuthUsername string `env:"BASIC_AUTH_USERNAME"`
	BasicAuthPassword string `env:"BASIC_AUTH_PASSWORD"`

	// Custom header auth is enabled only when both halves are set.
	CustomHeaderName  string `env:"CUSTOM_HEADER_NAME"`
	CustomHeaderValue string `env:"CUSTOM_HEADER_VALUE"`

	MaxBodySize     ByteSize      `env:"MAX_BODY_SIZE,default=1MB"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT,default=10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`

	// VerifySignature turns on x-zm-signature checking for POST bodies.
	VerifySignature    bool          `env:"ZOOM_VERIFY_SIGNATURE,default=false"`
	SignatureTolerance time.Duration `env:"ZOOM_SIGNATURE_TOLERANCE,default=5m"`

	// Metrics and spans are written as JSON to stdout every MetricsInterval.
	MetricsEnabled  bool          `env:"METRICS_ENABLED,default=false"`
	MetricsInterval time.Duration `env:"METRICS_EXPORT_INTERVAL,default=60s"`

	// SourceFile is the YAML overlay that was applied, if any.
	SourceFile string
}

// BasicAuthEnabled reports whether both basic auth credentials are set.
func (c Config) BasicAuthEnabled() bool {
	return c.BasicAuthUsername != "" && c.BasicAuthPassword != ""
}

// CustomHeaderEnabled reports whether both custom header fields are set.
func (c Config) CustomHeaderEnabled() bool {
	return c.CustomHeaderName != "" && c.CustomHeaderValue != ""
}

// ListenAddr returns the address the webhook server binds to.
func (c Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}

// fileConfig mirrors the YAML overlay layout. Pointer fields distinguish
// "absent" from "set to the zero value".
type fileConfig struct {
	Port        *int    `yaml:"port"`
	Environment *string `yaml:"environment"`
	LogLevel    *string `yaml:"log_level"`

	Zoom struct {
		VerificationToken  *string        `yaml:"verification_token"`
		VerifySignature    *bool          `yaml:"verify_signature"`
		SignatureTolerance *time.Duration `yaml:"signature_tolerance"`
	} `yaml:"zoom"`

	BasicAuth struct {
		Username *string `yaml:"username"`
		Password *string `yaml:"password"`
	} `yaml:"basic_auth"`

	CustomHeader struct {
		Name  *string `yaml:"name"`
		Value *string `yaml:"value"`
	} `yaml:"custom_header"`

	Server struct {
		MaxBodySize     *ByteSize      `yaml:"max_body_size"`
		ReadTimeout     *time.Duration `yaml:"read_timeout"`
		WriteTimeout    *time.Duration `yaml:"write_timeout"`
		ShutdownTimeout *time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Metrics struct {
		Enabled        *bool          `yaml:"enabled"`
		ExportInterval *time.Duration `yaml:"export_interval"`
	} `yaml:"metrics"`
}

// ByteSize is a size in bytes that accepts "1MB", "512KB" or plain numbers.
type ByteSize int64

// Decode implements envdecode.Decoder.
func (b *ByteSize) Decode(s string) error {
	n, err := parseByteSize(s)
	if err != nil {
		return err
	}
	*b = ByteSize(n)
	return nil
}

// UnmarshalYAML accepts both integer and suffixed string forms.
func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: max_body_size must be a scalar", node.Line)
	}
	return b.Decode(node.Value)
}

// Int64 returns the size as a plain int64.
func (b ByteSize) Int64() int64 { return int64(b) }

// parseByteSize parses size strings like "1MB", "2048576", "64KB" to bytes.
func parseByteSize(size string) (int64, error) {
	upper := strings.ToUpper(strings.TrimSpace(size))
	multiplier := int64(1)

	switch {
	case strings.HasSuffix(upper, "KB"):
		multiplier = 1024
		upper = strings.TrimSuffix(upper, "KB")
	case strings.HasSuffix(upper, "MB"):
		multiplier = 1024 * 1024
		upper = strings.TrimSuffix(upper, "MB")
	case strings.HasSuffix(upper, "GB"):
		multiplier = 1024 * 1024 * 1024
		upper = strings.TrimSuffix(upper, "GB")
	}

	value, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", size, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}

	result := value * multiplier
	if result/multiplier != value {
		return 0, fmt.Errorf("size too large")
	}
	return result, nil
}
