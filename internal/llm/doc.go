// Package llm provides a minimal chat completion client used by the
// scheduling components for time ranking and conflict resolution.
package llm
