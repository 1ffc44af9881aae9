// Package gmail provides a send-only Gmail client used to deliver meeting
// notification emails on behalf of the organizer's account.
package gmail
