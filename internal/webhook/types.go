package webhook

import (
	"context"
	"time"

	"github.com/mattjoyce/zoomhook/internal/auth"
	"github.com/mattjoyce/zoomhook/internal/dispatch"
)

// EventDispatcher turns a buffered request body into a response.
type EventDispatcher interface {
	Dispatch(ctx context.Context, body []byte) (dispatch.Result, error)
}

// Config holds webhook server configuration.
type Config struct {
	// Listen is the TCP address, e.g. ":3000".
	Listen string

	// Environment and Version are reported by the status endpoint.
	Environment string
	Version     string

	// Auth is the credential policy applied to every request.
	Auth auth.Policy

	// Secret is the Zoom verification token, used for x-zm-signature.
	Secret string

	// VerifySignature requires a valid x-zm-signature on POST bodies.
	VerifySignature bool

	// SignatureTolerance bounds the age of x-zm-request-timestamp.
	SignatureTolerance time.Duration

	// MaxBodySize is the maximum allowed request body size in bytes (default: 1MB)
	MaxBodySize int64

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StatusResponse is the JSON body for GET requests.
type StatusResponse struct {
	Message                     string `json:"message"`
	Status                      string `json:"status"`
	Timestamp                   string `json:"timestamp"`
	Version                     string `json:"version,omitempty"`
	Environment                 string `json:"environment,omitempty"`
	InstanceID                  string `json:"instance_id"`
	UptimeSeconds               int64  `json:"uptime_seconds"`
	VerificationTokenConfigured bool   `json:"verification_token_configured"`
	BasicAuthEnabled            bool   `json:"basic_auth_enabled"`
	CustomHeaderEnabled         bool   `json:"custom_header_enabled"`
	SignatureVerification       bool   `json:"signature_verification"`
}

// ErrorResponse is the JSON response for webhook errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Response messages.
const (
	StatusMessage           = "Zoom Webhook Server"
	MessageMethodNotAllowed = "Method not allowed"
	MessagePayloadTooLarge  = "Payload too large"
	MessageInvalidSignature = "Unauthorized: Invalid signature"
	MessageInternalError    = "Internal server error"
)

// Zoom request signing headers.
const (
	HeaderZoomSignature        = "X-Zm-Signature"
	HeaderZoomRequestTimestamp = "X-Zm-Request-Timestamp"
)

// Default values
const (
	DefaultMaxBodySize        = 1048576 // 1 MB
	DefaultReadTimeout        = 10 * time.Second
	DefaultWriteTimeout       = 10 * time.Second
	DefaultShutdownTimeout    = 5 * time.Second
	DefaultSignatureTolerance = 5 * time.Minute
)
