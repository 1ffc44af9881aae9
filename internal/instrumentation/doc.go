// Package instrumentation provides OpenTelemetry-based observability for the
// agent: metrics, distributed tracing, and audit logging.
//
// # Metrics
//
// Metrics cover scheduling runs, language model requests, notifications,
// Google API operations, MCP tool invocations, and the HTTP surface. They
// export through Prometheus (default), OTLP, or stdout, selected with
// METRICS_EXPORTER.
//
// # Tracing
//
// Tracing is off by default; enable it with TRACING_EXPORTER=otlp and
// OTEL_EXPORTER_OTLP_ENDPOINT, or TRACING_EXPORTER=stdout for development.
// Sampling is parent-based with a configurable ratio (OTEL_TRACES_SAMPLER_ARG).
//
// # Cardinality
//
// Label values are kept low-cardinality: emails reduce to domains
// (ExtractUserDomain) and participant counts reduce to buckets
// (BucketParticipantCount). High-cardinality labels only appear when
// METRICS_DETAILED_LABELS=true.
package instrumentation
