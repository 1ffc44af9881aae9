// Package hubspot is a minimal HubSpot CRM client. The attendee resolver
// falls back to it when a name matches neither an internal user nor a Google
// contact.
package hubspot
