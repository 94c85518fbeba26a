package config

import (
	"os"
)

// DefaultConfigFile is picked up from the working directory when no path
// is given on the command line or in $ZOOMHOOK_CONFIG.
const DefaultConfigFile = "zoomhook.yaml"

// ResolvePath picks the YAML overlay to load.
// Priority order: explicit flag, $ZOOMHOOK_CONFIG, ./zoomhook.yaml.
// An empty result means environment-only configuration.
func ResolvePath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}

	if p := os.Getenv("ZOOMHOOK_CONFIG"); p != "" {
		return p
	}

	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}

	return ""
}
