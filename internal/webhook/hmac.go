package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Signature verification errors. Callers respond with the same generic
// 401 for all of them; the distinction is for logs and metrics.
var (
	ErrSignatureMissing = errors.New("signature or timestamp missing")
	ErrSignatureInvalid = errors.New("signature mismatch")
	ErrSignatureStale   = errors.New("request timestamp outside tolerance")
)

const signatureVersion = "v0"

// verifyZoomSignature checks an x-zm-signature header.
//
// Zoom signs "v0:{x-zm-request-timestamp}:{raw body}" with HMAC-SHA256
// keyed by the secret token and sends "v0=<hex>". The timestamp is Unix
// seconds and must lie within tolerance of now.
func verifyZoomSignature(body []byte, timestamp, signature, secret string, now time.Time, tolerance time.Duration) error {
	if signature == "" || timestamp == "" || secret == "" {
		return ErrSignatureMissing
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrSignatureInvalid
	}
	age := now.Sub(time.Unix(ts, 0))
	if age < 0 {
		age = -age
	}
	if age > tolerance {
		return ErrSignatureStale
	}

	actualMAC, err := parseSignature(signature)
	if err != nil {
		return ErrSignatureInvalid
	}

	// constant-time comparison
	if !hmac.Equal(signatureMAC(body, timestamp, secret), actualMAC) {
		return ErrSignatureInvalid
	}

	return nil
}

// parseSignature decodes "v0=<hex>" into raw MAC bytes.
func parseSignature(signature string) ([]byte, error) {
	hexSig, ok := strings.CutPrefix(signature, signatureVersion+"=")
	if !ok {
		return nil, ErrSignatureInvalid
	}
	return hex.DecodeString(hexSig)
}

func signatureMAC(body []byte, timestamp, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signatureVersion + ":" + timestamp + ":"))
	mac.Write(body)
	return mac.Sum(nil)
}

// computeZoomSignature returns the x-zm-signature value for body.
func computeZoomSignature(body []byte, timestamp, secret string) string {
	return signatureVersion + "=" + hex.EncodeToString(signatureMAC(body, timestamp, secret))
}
