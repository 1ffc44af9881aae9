// Package contacts looks people up through the Google People API. The
// attendee resolver uses it to turn names into email addresses.
package contacts
