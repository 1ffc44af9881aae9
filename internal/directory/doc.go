// Package directory queries the application's user database. The attendee
// resolver consults it before falling back to external contact sources.
package directory
