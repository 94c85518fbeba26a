package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// Reason explains an authorization decision.
type Reason int

const (
	// ReasonNoneConfigured means neither basic auth nor a custom header is configured.
	ReasonNoneConfigured Reason = iota
	// ReasonSkipped means checks are configured but the request presented
	// none of the credentials they look at.
	ReasonSkipped
	ReasonBasicOK
	ReasonBasicFail
	ReasonHeaderOK
	ReasonHeaderFail
)

func (r Reason) String() string {
	switch r {
	case ReasonNoneConfigured:
		return "NONE_CONFIGURED"
	case ReasonSkipped:
		return "SKIPPED"
	case ReasonBasicOK:
		return "BASIC_OK"
	case ReasonBasicFail:
		return "BASIC_FAIL"
	case ReasonHeaderOK:
		return "HEADER_OK"
	case ReasonHeaderFail:
		return "HEADER_FAIL"
	default:
		return "UNKNOWN"
	}
}

// Policy is the credential configuration the Authorizer checks against.
// Each mode is active only when both of its fields are non-empty.
type Policy struct {
	BasicUsername string
	BasicPassword string
	HeaderName    string
	HeaderValue   string
}

// BasicEnabled reports whether basic auth is configured.
func (p Policy) BasicEnabled() bool {
	return p.BasicUsername != "" && p.BasicPassword != ""
}

// HeaderEnabled reports whether the custom header check is configured.
func (p Policy) HeaderEnabled() bool {
	return p.HeaderName != "" && p.HeaderValue != ""
}

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Message is the error text returned to a denied caller.
func (d Decision) Message() string {
	switch d.Reason {
	case ReasonBasicFail:
		return "Unauthorized: Invalid credentials"
	case ReasonHeaderFail:
		return "Unauthorized: Invalid header token"
	default:
		return ""
	}
}

// Challenge is the WWW-Authenticate value to send with a denial, or "".
func (d Decision) Challenge() string {
	if d.Reason == ReasonBasicFail {
		return "Basic"
	}
	return ""
}

const basicPrefix = "Basic "

// ErrMalformedBasic is returned by ParseBasic for undecodable credentials.
var ErrMalformedBasic = errors.New("malformed basic credentials")

// Authorize evaluates request headers against p. Both checks are independent:
// a request must pass every check it is subject to. A configured check whose
// credentials are absent from the request is skipped, not failed.
func Authorize(h http.Header, p Policy) Decision {
	if !p.BasicEnabled() && !p.HeaderEnabled() {
		return Decision{Allowed: true, Reason: ReasonNoneConfigured}
	}

	reason := ReasonSkipped

	if p.BasicEnabled() {
		user, pass, ok, err := ParseBasic(h.Get("Authorization"))
		if err != nil {
			return Decision{Allowed: false, Reason: ReasonBasicFail}
		}
		if ok {
			if !constantTimeEqual(user, p.BasicUsername) || !constantTimeEqual(pass, p.BasicPassword) {
				return Decision{Allowed: false, Reason: ReasonBasicFail}
			}
			reason = ReasonBasicOK
		}
	}

	if p.HeaderEnabled() {
		if values := h.Values(p.HeaderName); len(values) > 0 {
			if !constantTimeEqual(strings.Join(values, ", "), p.HeaderValue) {
				return Decision{Allowed: false, Reason: ReasonHeaderFail}
			}
			reason = ReasonHeaderOK
		}
	}

	return Decision{Allowed: true, Reason: reason}
}

// ParseBasic extracts credentials from an Authorization header value.
// ok is false when the header is empty or uses another scheme. Only the
// first colon separates username from password, so passwords may contain
// colons. Invalid base64 returns ErrMalformedBasic.
func ParseBasic(header string) (username, password string, ok bool, err error) {
	if !strings.HasPrefix(header, basicPrefix) {
		return "", "", false, nil
	}

	encoded := strings.TrimSpace(strings.TrimPrefix(header, basicPrefix))
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return "", "", false, ErrMalformedBasic
		}
	}

	username, password, _ = strings.Cut(string(decoded), ":")
	return username, password, true, nil
}

func constantTimeEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

type decisionKey struct{}

// WithDecision stores d on ctx for later middleware and handlers.
func WithDecision(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, decisionKey{}, d)
}

// DecisionFromContext returns the decision stored by WithDecision.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionKey{}).(Decision)
	return d, ok
}
