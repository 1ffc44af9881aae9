package scheduling_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/atomhq/atom-agent/internal/server"
	"github.com/atomhq/atom-agent/internal/tools/common"
)

// RegisterSchedulingTools registers the meeting scheduling tools with the MCP server
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	scheduleMeetingTool := mcp.NewTool("schedule_meeting",
		mcp.WithDescription("Schedule a meeting across multiple participants' calendars. Fetches everyone's availability, asks the scheduling model to rank candidate times, and creates the meeting automatically when enough participants are free."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Meeting title"),
		),
		mcp.WithString("participants",
			mcp.Required(),
			mcp.Description("Comma-separated participant references: email addresses or names to resolve via contacts"),
		),
		mcp.WithString("windowStart",
			mcp.Required(),
			mcp.Description("Start of the scheduling window (RFC3339 format, e.g., '2025-01-06T09:00:00Z')"),
		),
		mcp.WithString("windowEnd",
			mcp.Required(),
			mcp.Description("End of the scheduling window (RFC3339 format, e.g., '2025-01-10T17:00:00Z')"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Required(),
			mcp.Description("Meeting duration in minutes"),
		),
		mcp.WithString("meetingType",
			mcp.Description("Meeting type: internal, client, external, or team (default: internal). Team meetings are announced on Slack."),
		),
		mcp.WithString("constraints",
			mcp.Description("Comma-separated soft preferences for the scheduler, e.g. 'prefer mornings, avoid Fridays'"),
		),
		mcp.WithString("organizer",
			mcp.Description("Organizer identifier (default: the account name)"),
		),
		mcp.WithString("idempotencyKey",
			mcp.Description("Optional key that guards against creating the same meeting twice"),
		),
	)

	s.AddTool(scheduleMeetingTool, common.InstrumentedToolHandlerWithService(
		"schedule_meeting", "calendar", "create", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleScheduleMeeting(ctx, request, sc)
		}))

	getAvailabilityTool := mcp.NewTool("get_availability",
		mcp.WithDescription("Fetch free/busy availability for one or more participants in a time window"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("participants",
			mcp.Required(),
			mcp.Description("Comma-separated list of participant email addresses"),
		),
		mcp.WithString("windowStart",
			mcp.Required(),
			mcp.Description("Start of the window (RFC3339 format)"),
		),
		mcp.WithString("windowEnd",
			mcp.Required(),
			mcp.Description("End of the window (RFC3339 format)"),
		),
	)

	s.AddTool(getAvailabilityTool, common.InstrumentedToolHandlerWithService(
		"get_availability", "calendar", "freebusy", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAvailability(ctx, request, sc)
		}))

	findSlotsTool := mcp.NewTool("find_slots",
		mcp.WithDescription("Find time slots where all participants are free, without ranking or creating anything. Useful for presenting raw options to the user."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("participants",
			mcp.Required(),
			mcp.Description("Comma-separated list of participant email addresses"),
		),
		mcp.WithString("windowStart",
			mcp.Required(),
			mcp.Description("Start of the window (RFC3339 format)"),
		),
		mcp.WithString("windowEnd",
			mcp.Required(),
			mcp.Description("End of the window (RFC3339 format)"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Required(),
			mcp.Description("Required slot duration in minutes"),
		),
	)

	s.AddTool(findSlotsTool, common.InstrumentedToolHandlerWithService(
		"find_slots", "calendar", "freebusy", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindSlots(ctx, request, sc)
		}))

	cancelEventTool := mcp.NewTool("cancel_event",
		mcp.WithDescription("Cancel a previously scheduled calendar event"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("ID of the event to cancel, as returned by schedule_meeting"),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar containing the event (default: 'primary')"),
		),
	)

	s.AddTool(cancelEventTool, common.InstrumentedToolHandlerWithService(
		"cancel_event", "calendar", "delete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCancelEvent(ctx, request, sc)
		}))

	resolveAttendeesTool := mcp.NewTool("resolve_attendees",
		mcp.WithDescription("Resolve free-form attendee references (names or emails) to concrete email addresses using the user directory, Google contacts, and the CRM"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("attendees",
			mcp.Required(),
			mcp.Description("Comma-separated attendee references, e.g. 'ada@example.com, Grace Hopper'"),
		),
	)

	s.AddTool(resolveAttendeesTool, common.InstrumentedToolHandlerWithService(
		"resolve_attendees", "people", "search", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleResolveAttendees(ctx, request, sc)
		}))

	resolveConflictsTool := mcp.NewTool("resolve_conflicts",
		mcp.WithDescription("Ask the scheduling model for advice on resolving participant conflicts for a meeting"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Meeting title"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Required(),
			mcp.Description("Meeting duration in minutes"),
		),
		mcp.WithString("conflicts",
			mcp.Required(),
			mcp.Description(`JSON array of conflicts, e.g. '[{"participantId":"ada@example.com","reason":"busy until 15:00"}]'`),
		),
	)

	s.AddTool(resolveConflictsTool, common.InstrumentedToolHandler(
		"resolve_conflicts", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleResolveConflicts(ctx, request, sc)
		}))

	return nil
}
