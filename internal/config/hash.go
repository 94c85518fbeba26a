package config

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// fingerprintLen is the number of hex characters kept from the digest.
const fingerprintLen = 12

// Fingerprint returns a short BLAKE3 digest of a secret so it can be
// logged and compared across deployments without revealing it.
// An empty secret yields "".
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

// Summary describes which features are active, safe to print or log.
type Summary struct {
	Environment            string `json:"environment"`
	ListenAddr             string `json:"listen_addr"`
	VerificationConfigured bool   `json:"verification_token_configured"`
	TokenFingerprint       string `json:"token_fingerprint,omitempty"`
	BasicAuthEnabled       bool   `json:"basic_auth_enabled"`
	CustomHeaderEnabled    bool   `json:"custom_header_enabled"`
	CustomHeaderName       string `json:"custom_header_name,omitempty"`
	SignatureVerification  bool   `json:"signature_verification"`
	MetricsEnabled         bool   `json:"metrics_enabled"`
	SourceFile             string `json:"source_file,omitempty"`
}

// Summary returns the printable view of c.
func (c Config) Summary() Summary {
	s := Summary{
		Environment:            c.Environment,
		ListenAddr:             c.ListenAddr(),
		VerificationConfigured: c.VerificationToken != "",
		TokenFingerprint:       Fingerprint(c.VerificationToken),
		BasicAuthEnabled:       c.BasicAuthEnabled(),
		CustomHeaderEnabled:    c.CustomHeaderEnabled(),
		SignatureVerification:  c.VerifySignature,
		MetricsEnabled:         c.MetricsEnabled,
		SourceFile:             c.SourceFile,
	}
	if s.CustomHeaderEnabled {
		s.CustomHeaderName = c.CustomHeaderName
	}
	return s
}
