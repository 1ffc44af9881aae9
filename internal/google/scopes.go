package google

// DefaultOAuthScopes are the Google OAuth scopes required by the scheduling
// skills. These scopes are used consistently across the application for OAuth
// configurations.
//
// The scopes provide access to:
//   - Google Calendar: full access (freebusy queries, event creation with invites)
//   - Gmail: send-only (meeting confirmation emails)
//   - Contacts: read-only (attendee resolution, including other contacts and
//     Workspace directory)
var DefaultOAuthScopes = []string{
	// OpenID Connect scopes (required for user info)
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",

	// Google Calendar scope
	"https://www.googleapis.com/auth/calendar",

	// Gmail scope
	"https://www.googleapis.com/auth/gmail.send",

	// Contacts scopes
	"https://www.googleapis.com/auth/contacts.readonly",
	"https://www.googleapis.com/auth/contacts.other.readonly",
	"https://www.googleapis.com/auth/directory.readonly",
}
