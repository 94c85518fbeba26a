package webhook

import (
	"github.com/mattjoyce/zoomhook/internal/auth"
	"github.com/mattjoyce/zoomhook/internal/config"
)

// FromGlobalConfig converts the process configuration to webhook.Config.
func FromGlobalConfig(cfg config.Config, version string) Config {
	return Config{
		Listen:      cfg.ListenAddr(),
		Environment: cfg.Environment,
		Version:     version,
		Auth: auth.Policy{
			BasicUsername: cfg.BasicAuthUsername,
			BasicPassword: cfg.BasicAuthPassword,
			HeaderName:    cfg.CustomHeaderName,
			HeaderValue:   cfg.CustomHeaderValue,
		},
		Secret:             cfg.VerificationToken,
		VerifySignature:    cfg.VerifySignature,
		SignatureTolerance: cfg.SignatureTolerance,
		MaxBodySize:        cfg.MaxBodySize.Int64(),
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		ShutdownTimeout:    cfg.ShutdownTimeout,
	}
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = DefaultMaxBodySize
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.SignatureTolerance <= 0 {
		c.SignatureTolerance = DefaultSignatureTolerance
	}
	return c
}
