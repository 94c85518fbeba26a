package config

import (
	"fmt"
	"strings"
)

// validate performs basic validation on the configuration.
// Unset auth values are never an error; they disable the matching check.
func validate(cfg Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}

	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("log_level must be one of DEBUG, INFO, WARN, ERROR, got %q", cfg.LogLevel)
	}

	if cfg.MaxBodySize <= 0 {
		return fmt.Errorf("max_body_size must be positive")
	}
	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}
	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	if cfg.MetricsEnabled && cfg.MetricsInterval <= 0 {
		return fmt.Errorf("metrics export_interval must be positive when metrics are enabled")
	}
	if cfg.VerifySignature && cfg.SignatureTolerance <= 0 {
		return fmt.Errorf("signature_tolerance must be positive when signature verification is enabled")
	}

	return nil
}

// Warnings lists configuration that is accepted but probably unintended.
func (c Config) Warnings() []string {
	var warnings []string

	if c.VerificationToken == "" {
		warnings = append(warnings, "ZOOM_VERIFICATION_TOKEN is not set; url_validation responses will use an empty HMAC key")
	}
	if (c.BasicAuthUsername == "") != (c.BasicAuthPassword == "") {
		warnings = append(warnings, "only one of BASIC_AUTH_USERNAME/BASIC_AUTH_PASSWORD is set; basic auth is disabled")
	}
	if (c.CustomHeaderName == "") != (c.CustomHeaderValue == "") {
		warnings = append(warnings, "only one of CUSTOM_HEADER_NAME/CUSTOM_HEADER_VALUE is set; custom header auth is disabled")
	}
	if c.VerifySignature && c.VerificationToken == "" {
		warnings = append(warnings, "ZOOM_VERIFY_SIGNATURE is enabled without a verification token; every signed request will be rejected")
	}

	return warnings
}
