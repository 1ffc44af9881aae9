// Package calendar provides Google Calendar integration for the scheduling
// skills: free/busy queries, event creation with invitation control, and the
// AvailabilityService that assembles per-participant availability for the
// meeting ranker.
package calendar
