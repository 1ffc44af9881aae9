package scheduling_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/atomhq/atom-agent/internal/instrumentation"
	"github.com/atomhq/atom-agent/internal/scheduling"
	"github.com/atomhq/atom-agent/internal/server"
	"github.com/atomhq/atom-agent/internal/tools/common"
)

// splitList splits a comma-separated argument into trimmed, non-empty items.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func parseTimeArg(args map[string]interface{}, name string) (time.Time, error) {
	raw, ok := args[name].(string)
	if !ok || raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format: %v", name, err)
	}
	return t, nil
}

func handleScheduleMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	title, ok := args["title"].(string)
	if !ok || title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}

	participantsStr, ok := args["participants"].(string)
	if !ok || participantsStr == "" {
		return mcp.NewToolResultError("participants is required"), nil
	}
	participants := splitList(participantsStr)
	if len(participants) == 0 {
		return mcp.NewToolResultError("participants is required"), nil
	}

	windowStart, err := parseTimeArg(args, "windowStart")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	windowEnd, err := parseTimeArg(args, "windowEnd")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	durationVal, ok := args["durationMinutes"].(float64)
	if !ok || durationVal <= 0 {
		return mcp.NewToolResultError("durationMinutes is required and must be positive"), nil
	}

	meetingType, err := scheduling.ParseMeetingType(stringArg(args, "meetingType"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	organizer := stringArg(args, "organizer")
	if organizer == "" {
		organizer = account
	}

	var constraints []string
	if raw := stringArg(args, "constraints"); raw != "" {
		constraints = splitList(raw)
	}

	req := &scheduling.MeetingRequest{
		OrganizerID:       organizer,
		Title:             title,
		ParticipantEmails: participants,
		WindowStart:       windowStart,
		WindowEnd:         windowEnd,
		Constraints:       constraints,
		MeetingType:       meetingType,
		DurationMinutes:   int(durationVal),
		IdempotencyKey:    stringArg(args, "idempotencyKey"),
	}

	scheduler, err := sc.SchedulerForAccount(account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	runCtx, span := instrumentation.StartSpan(ctx, "scheduling.run",
		attribute.Int(instrumentation.SpanAttrParticipants, len(participants)))
	defer span.End()

	start := time.Now()
	outcome, err := scheduler.ScheduleMultiUserMeeting(runCtx, req)
	if m := sc.Metrics(); m != nil {
		status := instrumentation.StatusSuccess
		created := false
		if err != nil {
			status = instrumentation.StatusError
		} else {
			created = outcome.MeetingCreated
		}
		m.RecordSchedulingRun(ctx, status, created, len(participants), time.Since(start))
	}
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to schedule meeting: %v", err)), nil
	}
	instrumentation.SetSpanSuccess(span)

	payload, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode outcome: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func handleGetAvailability(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	participantsStr, ok := args["participants"].(string)
	if !ok || participantsStr == "" {
		return mcp.NewToolResultError("participants is required"), nil
	}
	emails := splitList(participantsStr)

	windowStart, err := parseTimeArg(args, "windowStart")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	windowEnd, err := parseTimeArg(args, "windowEnd")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	availability, err := sc.AvailabilityForAccount(account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, failures, err := availability.UsersAvailability(ctx, emails, windowStart, windowEnd)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch availability: %v", err)), nil
	}

	response := struct {
		Participants []scheduling.ParticipantAvailability `json:"participants"`
		Failures     map[string]string                    `json:"failures,omitempty"`
	}{Participants: results}
	if len(failures) > 0 {
		response.Failures = make(map[string]string, len(failures))
		for email, ferr := range failures {
			response.Failures[email] = ferr.Error()
		}
	}

	payload, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode availability: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func handleFindSlots(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	participantsStr, ok := args["participants"].(string)
	if !ok || participantsStr == "" {
		return mcp.NewToolResultError("participants is required"), nil
	}
	emails := splitList(participantsStr)

	windowStart, err := parseTimeArg(args, "windowStart")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	windowEnd, err := parseTimeArg(args, "windowEnd")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	durationVal, ok := args["durationMinutes"].(float64)
	if !ok || durationVal <= 0 {
		return mcp.NewToolResultError("durationMinutes is required and must be positive"), nil
	}
	duration := time.Duration(durationVal) * time.Minute

	client := sc.CalendarClientForAccount(account)
	if client == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no Calendar client available for account %s", account)), nil
	}

	slots, err := client.FindAvailableSlots(emails, duration, windowStart, windowEnd)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to find slots: %v", err)), nil
	}

	type slotView struct {
		Start           time.Time `json:"start"`
		End             time.Time `json:"end"`
		DurationMinutes int       `json:"durationMinutes"`
	}
	response := struct {
		TimeZone string     `json:"timeZone,omitempty"`
		Slots    []slotView `json:"slots"`
	}{Slots: make([]slotView, 0, len(slots))}

	// Timezone is presentation context; a lookup failure should not hide
	// the slots themselves.
	if info, err := client.GetPrimaryCalendar(); err == nil {
		response.TimeZone = info.TimeZone
	}

	for _, slot := range slots {
		response.Slots = append(response.Slots, slotView{
			Start:           slot.Start,
			End:             slot.End,
			DurationMinutes: int(slot.Duration / time.Minute),
		})
	}

	payload, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode slots: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func handleCancelEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	eventID, ok := args["eventId"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	calendarID := stringArg(args, "calendarId")
	if calendarID == "" {
		calendarID = "primary"
	}

	client := sc.CalendarClientForAccount(account)
	if client == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no Calendar client available for account %s", account)), nil
	}

	if err := client.DeleteEvent(calendarID, eventID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to cancel event: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Event %s cancelled", eventID)), nil
}

func handleResolveAttendees(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	attendeesStr, ok := args["attendees"].(string)
	if !ok || attendeesStr == "" {
		return mcp.NewToolResultError("attendees is required"), nil
	}
	refs := splitList(attendeesStr)
	if len(refs) == 0 {
		return mcp.NewToolResultError("attendees is required"), nil
	}

	resolved := sc.ResolverForAccount(account).ResolveAttendees(ctx, refs, account)

	payload, err := json.MarshalIndent(resolved, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode attendees: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func handleResolveConflicts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	title, ok := args["title"].(string)
	if !ok || title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}

	durationVal, ok := args["durationMinutes"].(float64)
	if !ok || durationVal <= 0 {
		return mcp.NewToolResultError("durationMinutes is required and must be positive"), nil
	}

	conflictsStr, ok := args["conflicts"].(string)
	if !ok || conflictsStr == "" {
		return mcp.NewToolResultError("conflicts is required"), nil
	}
	var conflicts []scheduling.ParticipantConflict
	if err := json.Unmarshal([]byte(conflictsStr), &conflicts); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid conflicts JSON: %v", err)), nil
	}

	resolver, err := sc.ConflictResolver()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := &scheduling.MeetingRequest{
		Title:           title,
		DurationMinutes: int(durationVal),
	}
	advice := resolver.ResolveConflicts(ctx, req, conflicts)

	return mcp.NewToolResultText(advice), nil
}

func stringArg(args map[string]interface{}, name string) string {
	if val, ok := args[name].(string); ok {
		return strings.TrimSpace(val)
	}
	return ""
}
