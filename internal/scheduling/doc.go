// Package scheduling implements multi-user meeting scheduling: concurrent
// availability fan-out across participant calendars, model-based ranking of
// candidate times, and conditional meeting creation with notifications.
//
// The Scheduler orchestrates one run end to end. Its collaborators are
// injected as interfaces so transports and providers stay out of this
// package: AvailabilityProvider (calendar free/busy), Ranker (time ranking),
// MeetingCreator (event plus notifications), and an optional
// AttendeeResolver for free-form participant references.
package scheduling
