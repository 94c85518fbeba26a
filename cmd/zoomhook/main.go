package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/mattjoyce/zoomhook/internal/challenge"
	"github.com/mattjoyce/zoomhook/internal/config"
	"github.com/mattjoyce/zoomhook/internal/dispatch"
	"github.com/mattjoyce/zoomhook/internal/instrumentation"
	"github.com/mattjoyce/zoomhook/internal/log"
	"github.com/mattjoyce/zoomhook/internal/webhook"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	// --- NOUNS ---
	case "system":
		return runSystemNoun(args)
	case "config":
		return runConfigNoun(args)
	case "challenge":
		return runChallengeNoun(args)

	// --- ROOT ALIASES ---
	case "start":
		return runStart(args)
	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: zoomhook version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("zoomhook %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	if commit := firstKnown(gitCommit, readBuildSetting("vcs.revision")); commit != "" {
		info.Commit = shortenCommit(commit)
	}
	if built, ok := normalizeBuildTimeUTC(firstKnown(buildDate, readBuildSetting("vcs.time"))); ok {
		info.BuildTime = built
	}

	return info
}

// firstKnown returns the first value that is neither blank nor "unknown".
func firstKnown(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && v != "unknown" {
			return v
		}
	}
	return ""
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func normalizeBuildTimeUTC(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return "", false
	}
	return t.UTC().Format(time.RFC3339), true
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printUsage() {
	fmt.Print(`zoomhook - Zoom webhook receiver

Usage:
  zoomhook <noun> <action> [flags]

Core Resources (Nouns):
  system     Receiver lifecycle
  config     Configuration inspection
  challenge  URL validation helpers

System Commands:
  system start              Start the webhook server in foreground

Config Commands:
  config check              Validate configuration and show enabled modes

Challenge Commands:
  challenge compute <token> Print the url_validation response for a plainToken
  challenge verify <token> <encrypted>
                            Check an encryptedToken against the secret

General:
  version                   Show version information
  help                      Show this help message

Configuration is read from the environment (PORT, ZOOM_VERIFICATION_TOKEN,
BASIC_AUTH_USERNAME, BASIC_AUTH_PASSWORD, CUSTOM_HEADER_NAME,
CUSTOM_HEADER_VALUE, ...) with an optional YAML overlay given by --config,
$ZOOMHOOK_CONFIG or ./zoomhook.yaml.

Use 'zoomhook <noun> help' for resource-specific flags.
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printSystemNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSystemNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "start":
		if hasHelpFlag(actionArgs) {
			printSystemStartHelp()
			return 0
		}
		return runStart(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printConfigNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "check":
		if hasHelpFlag(actionArgs) {
			printConfigCheckHelp()
			return 0
		}
		return runConfigCheck(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func runChallengeNoun(args []string) int {
	if len(args) < 1 {
		printChallengeNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printChallengeNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "compute":
		if hasHelpFlag(actionArgs) {
			printChallengeComputeHelp()
			return 0
		}
		return runChallengeCompute(actionArgs)
	case "verify":
		if hasHelpFlag(actionArgs) {
			printChallengeVerifyHelp()
			return 0
		}
		return runChallengeVerify(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown challenge action: %s\n", action)
		return 1
	}
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func printSystemNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: zoomhook system <action>")
	fmt.Fprintln(w, "Actions: start")
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: zoomhook config <action> [flags]")
	fmt.Fprintln(w, "Actions: check")
}

func printChallengeNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: zoomhook challenge <action>")
	fmt.Fprintln(w, "Actions: compute, verify")
}

func printSystemStartHelp() {
	fmt.Println("Usage: zoomhook system start [--config PATH]")
	fmt.Println("Start the webhook server in the foreground.")
}

func printConfigCheckHelp() {
	fmt.Println("Usage: zoomhook config check [--config PATH] [--json]")
	fmt.Println("Load configuration, report enabled auth modes and warnings.")
	fmt.Println("")
	fmt.Println("Exit codes:")
	fmt.Println("  0  Configuration loaded (warnings may be present)")
	fmt.Println("  1  Configuration failed to load or validate")
}

func printChallengeComputeHelp() {
	fmt.Println("Usage: zoomhook challenge compute [--config PATH] [--secret TOKEN] <plainToken>")
	fmt.Println("Print the JSON body the server would answer an endpoint.url_validation with.")
	fmt.Println("The secret defaults to the configured verification token.")
}

func printChallengeVerifyHelp() {
	fmt.Println("Usage: zoomhook challenge verify [--config PATH] [--secret TOKEN] <plainToken> <encryptedToken>")
	fmt.Println("Check that encryptedToken is the HMAC-SHA256 of plainToken under the secret.")
	fmt.Println("")
	fmt.Println("Exit codes:")
	fmt.Println("  0  Token matches")
	fmt.Println("  1  Token does not match, or usage error")
}

// --- ACTION IMPLEMENTATIONS ---

func loadConfig(flagPath string) (config.Config, string, error) {
	path := config.ResolvePath(flagPath)
	cfg, err := config.Load(path)
	return cfg, path, err
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("zoomhook starting", "version", version, "config", path, "environment", cfg.Environment)
	for _, w := range cfg.Warnings() {
		logger.Warn("configuration warning", "warning", w)
	}

	inst, err := instrumentation.New(instrumentation.Config{
		ServiceName:    instrumentation.DefaultServiceName,
		ServiceVersion: version,
		Enabled:        cfg.MetricsEnabled,
		ExportInterval: cfg.MetricsInterval,
	})
	if err != nil {
		logger.Error("failed to initialize instrumentation", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := inst.Shutdown(shutdownCtx); err != nil {
			logger.Warn("instrumentation shutdown failed", "error", err)
		}
	}()

	disp := dispatch.New(cfg.VerificationToken,
		dispatch.WithInstrumentation(inst),
		dispatch.WithObservers(dispatch.LogObserver{Logger: log.WithComponent("events")}),
	)

	webhookConfig := webhook.FromGlobalConfig(cfg, version)
	webhookServer := webhook.New(webhookConfig, disp, log.WithComponent("webhook"),
		webhook.WithInstrumentation(inst),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- webhookServer.Start(ctx)
	}()

	logger.Info("zoomhook running (press Ctrl+C to stop)",
		"listen", webhookConfig.Listen,
		"token_fingerprint", config.Fingerprint(cfg.VerificationToken),
	)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("shutdown failed", "error", err)
			return 1
		}
	case err := <-errCh:
		logger.Error("webhook server failed", "error", err)
		return 1
	}

	logger.Info("zoomhook stopped")
	return 0
}

type configCheckReport struct {
	Summary  config.Summary `json:"summary"`
	Warnings []string       `json:"warnings"`
}

func runConfigCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML configuration file")
	jsonOut := fs.Bool("json", false, "Output report as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
		return 1
	}

	report := configCheckReport{Summary: cfg.Summary(), Warnings: cfg.Warnings()}
	if report.Warnings == nil {
		report.Warnings = []string{}
	}

	if *jsonOut {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render report JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	s := report.Summary
	source := s.SourceFile
	if source == "" {
		source = "(environment only)"
	}
	fmt.Println("Configuration valid.")
	fmt.Printf("  source:                 %s\n", source)
	fmt.Printf("  environment:            %s\n", s.Environment)
	fmt.Printf("  listen:                 %s\n", s.ListenAddr)
	fmt.Printf("  verification token:     %s\n", describeToken(s))
	fmt.Printf("  basic auth:             %s\n", enabledString(s.BasicAuthEnabled))
	if s.CustomHeaderEnabled {
		fmt.Printf("  custom header:          enabled (%s)\n", s.CustomHeaderName)
	} else {
		fmt.Println("  custom header:          disabled")
	}
	fmt.Printf("  signature verification: %s\n", enabledString(s.SignatureVerification))
	fmt.Printf("  metrics:                %s\n", enabledString(s.MetricsEnabled))

	for _, w := range report.Warnings {
		fmt.Printf("WARNING: %s\n", w)
	}
	return 0
}

func describeToken(s config.Summary) string {
	if !s.VerificationConfigured {
		return "not configured"
	}
	return "configured (fingerprint " + s.TokenFingerprint + ")"
}

func enabledString(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

func runChallengeCompute(args []string) int {
	fs := flag.NewFlagSet("compute", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML configuration file")
	secretFlag := fs.String("secret", "", "Secret token (overrides configuration)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: zoomhook challenge compute [--config PATH] [--secret TOKEN] <plainToken>")
		return 1
	}

	secret, err := challengeSecret(*configPath, *secretFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if secret == "" {
		fmt.Fprintln(os.Stderr, "Warning: no verification token configured; Zoom will reject this response")
	}

	data, err := json.Marshal(challenge.Compute(fs.Arg(0), secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render response JSON: %v\n", err)
		return 1
	}
	fmt.Println(string(data))
	return 0
}

func runChallengeVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML configuration file")
	secretFlag := fs.String("secret", "", "Secret token (overrides configuration)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: zoomhook challenge verify [--config PATH] [--secret TOKEN] <plainToken> <encryptedToken>")
		return 1
	}

	secret, err := challengeSecret(*configPath, *secretFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	resp := challenge.Response{PlainToken: fs.Arg(0), EncryptedToken: fs.Arg(1)}
	if !challenge.Verify(resp, secret) {
		fmt.Println("invalid")
		if secret == "" {
			fmt.Fprintln(os.Stderr, "encryptedToken does not match (no verification token configured)")
		} else {
			fmt.Fprintf(os.Stderr, "encryptedToken does not match secret with fingerprint %s\n", config.Fingerprint(secret))
		}
		return 1
	}
	fmt.Println("valid")
	return 0
}

// challengeSecret prefers the --secret flag over the configured token.
func challengeSecret(configPath, flagSecret string) (string, error) {
	if flagSecret != "" {
		return flagSecret, nil
	}
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return "", err
	}
	return cfg.VerificationToken, nil
}
