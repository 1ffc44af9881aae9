// Package idempotency keeps repeated scheduling requests from creating the
// same meeting twice. Deployments with one agent instance can use the
// in-memory guard; fleets share a Redis-backed guard.
package idempotency
