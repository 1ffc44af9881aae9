// Package google provides shared Google OAuth2 authentication for the
// Calendar, Gmail, and People clients.
//
// Tokens are cached per account under the user cache directory. The
// TokenProvider interface allows alternative token sources to be injected
// where file-based storage is not appropriate.
package google
