package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load builds the configuration from the process environment, then overlays
// the YAML file at path when one is given. A value set in the environment
// always wins over the same value in the file.
func Load(path string) (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("failed to decode environment: %w", err)
	}

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve config path %q: %w", path, err)
		}

		fc, err := loadConfigFile(absPath)
		if err != nil {
			return Config{}, err
		}
		fc.apply(&cfg, os.LookupEnv)
		cfg.SourceFile = absPath
	}

	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadConfigFile reads and parses a single YAML overlay file.
func loadConfigFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s\n"+
				"Hint: Check the path or run with --config flag", path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	interpolated := interpolateEnv(string(data))

	var fc fileConfig
	if err := yaml.Unmarshal([]byte(interpolated), &fc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", path, err)
	}
	return &fc, nil
}

// lookupFunc matches os.LookupEnv.
type lookupFunc func(string) (string, bool)

// apply copies every field present in the file into cfg unless the matching
// environment variable is set to a non-empty value.
func (fc *fileConfig) apply(cfg *Config, lookup lookupFunc) {
	overlay(&cfg.Port, fc.Port, "PORT", lookup)
	overlay(&cfg.Environment, fc.Environment, "ZOOMHOOK_ENV", lookup)
	overlay(&cfg.LogLevel, fc.LogLevel, "LOG_LEVEL", lookup)

	overlay(&cfg.VerificationToken, fc.Zoom.VerificationToken, "ZOOM_VERIFICATION_TOKEN", lookup)
	overlay(&cfg.VerifySignature, fc.Zoom.VerifySignature, "ZOOM_VERIFY_SIGNATURE", lookup)
	overlay(&cfg.SignatureTolerance, fc.Zoom.SignatureTolerance, "ZOOM_SIGNATURE_TOLERANCE", lookup)

	overlay(&cfg.BasicAuthUsername, fc.BasicAuth.Username, "BASIC_AUTH_USERNAME", lookup)
	overlay(&cfg.BasicAuthPassword, fc.BasicAuth.Password, "BASIC_AUTH_PASSWORD", lookup)
	overlay(&cfg.CustomHeaderName, fc.CustomHeader.Name, "CUSTOM_HEADER_NAME", lookup)
	overlay(&cfg.CustomHeaderValue, fc.CustomHeader.Value, "CUSTOM_HEADER_VALUE", lookup)

	overlay(&cfg.MaxBodySize, fc.Server.MaxBodySize, "MAX_BODY_SIZE", lookup)
	overlay(&cfg.ReadTimeout, fc.Server.ReadTimeout, "READ_TIMEOUT", lookup)
	overlay(&cfg.WriteTimeout, fc.Server.WriteTimeout, "WRITE_TIMEOUT", lookup)
	overlay(&cfg.ShutdownTimeout, fc.Server.ShutdownTimeout, "SHUTDOWN_TIMEOUT", lookup)

	overlay(&cfg.MetricsEnabled, fc.Metrics.Enabled, "METRICS_ENABLED", lookup)
	overlay(&cfg.MetricsInterval, fc.Metrics.ExportInterval, "METRICS_EXPORT_INTERVAL", lookup)
}

func overlay[T any](dst *T, src *T, envKey string, lookup lookupFunc) {
	if src == nil {
		return
	}
	if v, ok := lookup(envKey); ok && v != "" {
		return
	}
	*dst = *src
}

// interpolateEnv replaces ${VAR} references with environment values.
// Unknown variables are left in place.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}
