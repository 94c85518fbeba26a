// Package webhook is the HTTP surface of zoomhook.
//
// Every request passes the auth middleware first, so a request with bad
// credentials gets 401 regardless of method or path. After that, GET
// returns a status document and POST hands the body to an EventDispatcher.
// Other methods get 405.
//
// # Request Flow (POST)
//
//  1. Credential policy checked (401 on failure; WWW-Authenticate for basic)
//  2. Body size checked (413 if larger than MaxBodySize)
//  3. x-zm-signature verified when VerifySignature is set (401 on failure)
//  4. Body dispatched; the dispatcher picks status and JSON body
//  5. Malformed JSON yields 400 {"error":"Invalid request format"}
//
// # Signature Verification
//
// Zoom signs "v0:{timestamp}:{body}" with HMAC-SHA256 keyed by the secret
// token. Comparison is constant-time and every failure gets the same
// generic 401 body.
//
// # Client Address
//
// The router uses chi's RealIP middleware, which takes the client address
// from X-Forwarded-For or X-Real-IP when present. Those headers are client
// controlled, so the remote_addr in access logs is only trustworthy when a
// reverse proxy in front of the server overwrites them.
//
// # Example Usage
//
//	cfg, _ := config.Load(config.ResolvePath(""))
//	d := dispatch.New(cfg.VerificationToken)
//	server := webhook.New(webhook.FromGlobalConfig(cfg, version), d, logger)
//	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
//		log.Fatal(err)
//	}
package webhook
