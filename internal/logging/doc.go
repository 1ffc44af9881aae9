// Package logging provides structured logging utilities for the atom-agent
// scheduling skills.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (email anonymization)
//   - Stable operation tags for the scheduling pipeline
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), logging.OpMultiUserSchedule)
//	logger.Info("scheduling meeting",
//	    logging.ParticipantCount(4))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("attendee resolved",
//	    logging.UserHash(email))
//
// # Security Considerations
//
// This package is designed with security in mind:
//   - Participant emails are hashed to prevent PII leakage while allowing correlation
//   - API credentials are never logged
package logging
