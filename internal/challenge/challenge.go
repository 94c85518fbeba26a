// Package challenge answers Zoom's endpoint.url_validation handshake.
//
// Zoom sends a random plainToken; the receiver proves it holds the shared
// secret token by returning HMAC-SHA256(secret, plainToken) as lowercase
// hex. The secret itself never crosses the wire.
package challenge

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Response is the JSON body returned for a url_validation event.
type Response struct {
	PlainToken     string `json:"plainToken"`
	EncryptedToken string `json:"encryptedToken"`
}

// Compute derives the proof token for plainToken. It is a pure function of
// its inputs. An empty secret or token is valid and hashes normally.
func Compute(plainToken, secret string) Response {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(plainToken))
	return Response{
		PlainToken:     plainToken,
		EncryptedToken: hex.EncodeToString(mac.Sum(nil)),
	}
}

// Verify reports whether resp carries the proof token for its own
// plainToken under secret. Comparison is constant-time.
func Verify(resp Response, secret string) bool {
	expected := Compute(resp.PlainToken, secret)
	return hmac.Equal([]byte(expected.EncryptedToken), []byte(resp.EncryptedToken))
}
