// Package dispatch classifies parsed Zoom webhook bodies and builds responses.
//
// A body is either an endpoint.url_validation challenge, answered with the
// HMAC proof token from package challenge, or any other event, answered
// with a generic acknowledgement. Untyped JSON is narrowed explicitly:
// a challenge is recognized only when payload.plainToken is a JSON string.
//
// Flow:
//  1. Body parsed as a JSON object (failure → *ParseError, HTTP 400)
//  2. event == "endpoint.url_validation" with string payload.plainToken → challenge response
//  3. Anything else → {"message":"Webhook received","event":<name or "unknown">}
//  4. Generic events are handed to registered Observers; recording.completed
//     payloads are narrowed into RecordingCompleted for them
//
// The Dispatcher holds no per-request state and is safe for concurrent use.
package dispatch
