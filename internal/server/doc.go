// Package server provides the MCP server context, health endpoints, and the
// dedicated metrics listener for the atom-agent application.
//
// ServerContext manages Google API clients with lazy initialization and
// caching. It supports multiple accounts, each authenticated by a token file
// on disk, and holds the shared backing services: the OpenAI chat client,
// the Slack notifier, the Redis (or in-memory) idempotency guard, the
// Postgres user directory, and the HubSpot CRM client.
//
// SchedulerForAccount assembles a scheduling.Scheduler for one Google
// account: the account's calendar answers free/busy queries and receives
// created events, its Gmail delivers participant notifications, and its
// contacts feed the attendee resolver.
//
// HealthChecker serves Kubernetes liveness and readiness probes; the
// MetricsServer exposes Prometheus metrics on a separate port so that
// operational data never shares a listener with application traffic.
package server
