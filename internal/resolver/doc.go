// Package resolver turns free-form attendee references (emails or names)
// into concrete email addresses by consulting the internal user database,
// Google contacts, and the CRM, in that order.
package resolver
