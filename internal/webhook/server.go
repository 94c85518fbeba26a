package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mattjoyce/zoomhook/internal/auth"
	"github.com/mattjoyce/zoomhook/internal/dispatch"
	"github.com/mattjoyce/zoomhook/internal/instrumentation"
)

// Server represents the webhook HTTP server.
type Server struct {
	config     Config
	dispatcher EventDispatcher
	inst       *instrumentation.Instrumentation
	logger     *slog.Logger
	server     *http.Server

	instanceID string
	started    time.Time
	now        func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithInstrumentation records request metrics on inst.
func WithInstrumentation(inst *instrumentation.Instrumentation) Option {
	return func(s *Server) { s.inst = inst }
}

// WithClock overrides the time source used for uptime and signature age.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a new webhook server instance.
func New(config Config, dispatcher EventDispatcher, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		config:     config.withDefaults(),
		dispatcher: dispatcher,
		inst:       instrumentation.Noop(),
		logger:     logger,
		instanceID: uuid.NewString(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start listens on the configured address and serves until ctx is cancelled (blocking).
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("webhook server listen on %s: %w", s.config.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting",
		"listen", ln.Addr().String(),
		"instance_id", s.instanceID,
		"basic_auth_enabled", s.config.Auth.BasicEnabled(),
		"custom_header_enabled", s.config.Auth.HeaderEnabled(),
		"signature_verification", s.config.VerifySignature,
	)

	// Run server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

// setupRoutes configures the HTTP router. Auth runs as middleware so it
// applies before method dispatch, including to rejected methods.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	// RealIP trusts X-Forwarded-For and X-Real-IP; remote_addr is only
	// reliable behind a proxy that overwrites them.
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.authMiddleware)

	r.Get("/*", s.handleStatus)
	r.Post("/*", s.handleWebhook)
	r.MethodNotAllowed(s.handleMethodNotAllowed)
	r.NotFound(s.handleMethodNotAllowed)

	return r
}

// loggingMiddleware logs HTTP requests (excludes sensitive payloads) and
// records request metrics.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := s.now().Sub(start)
		s.inst.Metrics().RecordHTTPRequest(r.Context(), r.Method, ww.Status(), duration)

		// Log request (no body content for security)
		s.logger.Info("webhook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", duration.Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// authMiddleware applies the credential policy to every request.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		_, span := s.inst.Tracer("webhook").Start(ctx, "authorize")
		decision := auth.Authorize(r.Header, s.config.Auth)
		instrumentation.SetSpanAttributes(span, attribute.String(instrumentation.AttrAuthReason, decision.Reason.String()))
		if decision.Allowed {
			instrumentation.SetSpanSuccess(span)
		} else {
			span.SetStatus(codes.Error, decision.Message())
		}
		span.End()
		s.inst.Metrics().RecordAuthDecision(ctx, decision.Reason.String(), decision.Allowed)

		if !decision.Allowed {
			s.logger.Warn("request unauthorized",
				"reason", decision.Reason.String(),
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(ctx),
			)
			if challenge := decision.Challenge(); challenge != "" {
				w.Header().Set("WWW-Authenticate", challenge)
			}
			s.respondError(w, http.StatusUnauthorized, decision.Message())
			return
		}

		if decision.Reason == auth.ReasonSkipped {
			s.logger.Warn("auth configured but request carried no credentials",
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(ctx),
			)
		} else {
			s.logger.Debug("request authorized", "reason", decision.Reason.String())
		}

		next.ServeHTTP(w, r.WithContext(auth.WithDecision(ctx, decision)))
	})
}

// handleStatus answers GET requests with a liveness summary.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	s.respondJSON(w, http.StatusOK, StatusResponse{
		Message:                     StatusMessage,
		Status:                      "running",
		Timestamp:                   now.UTC().Format(time.RFC3339),
		Version:                     s.config.Version,
		Environment:                 s.config.Environment,
		InstanceID:                  s.instanceID,
		UptimeSeconds:               int64(now.Sub(s.started).Seconds()),
		VerificationTokenConfigured: s.config.Secret != "",
		BasicAuthEnabled:            s.config.Auth.BasicEnabled(),
		CustomHeaderEnabled:         s.config.Auth.HeaderEnabled(),
		SignatureVerification:       s.config.VerifySignature,
	})
}

// handleWebhook handles incoming webhook POST requests.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Enforce body size limit
	limitedReader := io.LimitReader(r.Body, s.config.MaxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		s.logger.Warn("failed to read request body", "error", err)
		s.respondError(w, http.StatusBadRequest, dispatch.MessageInvalidRequest)
		return
	}

	// Check if body exceeded limit
	if int64(len(body)) > s.config.MaxBodySize {
		s.logger.Warn("webhook payload too large",
			"path", r.URL.Path,
			"limit", s.config.MaxBodySize,
		)
		s.respondError(w, http.StatusRequestEntityTooLarge, MessagePayloadTooLarge)
		return
	}

	if s.config.VerifySignature {
		err := verifyZoomSignature(body,
			r.Header.Get(HeaderZoomRequestTimestamp),
			r.Header.Get(HeaderZoomSignature),
			s.config.Secret,
			s.now(),
			s.config.SignatureTolerance,
		)
		if err != nil {
			s.inst.Metrics().RecordSignatureFailure(ctx, signatureFailureReason(err))
			s.logger.Warn("webhook signature verification failed",
				"path", r.URL.Path,
				"error", err,
			)
			s.respondError(w, http.StatusUnauthorized, MessageInvalidSignature)
			return
		}
	}

	result, err := s.dispatcher.Dispatch(ctx, body)
	if err != nil {
		var perr *dispatch.ParseError
		if errors.As(err, &perr) {
			s.respondError(w, http.StatusBadRequest, dispatch.MessageInvalidRequest)
			return
		}
		s.logger.Error("webhook dispatch failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, MessageInternalError)
		return
	}

	decision, _ := auth.DecisionFromContext(ctx)
	s.logger.Info("webhook handled",
		"kind", result.Kind.String(),
		"event", result.Event.Name,
		"auth_reason", decision.Reason.String(),
		"body_size", len(body),
	)
	s.respondJSON(w, result.Status, result.Body)
}

// handleMethodNotAllowed rejects everything other than GET and POST.
func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, http.StatusMethodNotAllowed, MessageMethodNotAllowed)
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Tokens are echoed byte for byte, so no HTML escaping.
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}

func signatureFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrSignatureMissing):
		return "missing"
	case errors.Is(err, ErrSignatureStale):
		return "stale"
	default:
		return "mismatch"
	}
}
