// Package instrumentation provides OpenTelemetry metrics and tracing for zoomhook.
//
// When disabled, no-op providers are used and recording costs nothing.
// When enabled, SDK providers export through the stdout metric and trace
// exporters as JSON to Config.Writer, with metrics collected every
// ExportInterval and flushed at Shutdown. A caller-supplied Reader or
// SpanProcessor replaces the matching exporter; tests use
// sdkmetric.NewManualReader and tracetest.NewSpanRecorder.
//
// Secrets, credentials and plain tokens are never recorded; only event
// names, auth decision reasons and HTTP metadata are.
package instrumentation
