// Package slack posts meeting announcements to a Slack workspace. It is
// used for team meetings and meetings with many participants.
package slack
