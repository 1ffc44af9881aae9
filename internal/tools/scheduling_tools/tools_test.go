package scheduling_tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atomhq/atom-agent/internal/calendar"
	"github.com/atomhq/atom-agent/internal/instrumentation"
	"github.com/atomhq/atom-agent/internal/llm"
	"github.com/atomhq/atom-agent/internal/server"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple list",
			input:    "a@example.com,b@example.com",
			expected: []string{"a@example.com", "b@example.com"},
		},
		{
			name:     "whitespace trimmed",
			input:    " a@example.com , Grace Hopper ",
			expected: []string{"a@example.com", "Grace Hopper"},
		},
		{
			name:     "empty items dropped",
			input:    "a@example.com,,  ,b@example.com",
			expected: []string{"a@example.com", "b@example.com"},
		},
		{
			name:     "only separators",
			input:    ", ,",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitList(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("splitList(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}


func TestParseTimeArg(t *testing.T) {
	args := map[string]interface{}{
		"windowStart": "2025-01-06T09:00:00Z",
		"bad":         "last Tuesday",
		"wrongType":   42,
	}

	if _, err := parseTimeArg(args, "windowStart"); err != nil {
		t.Errorf("parseTimeArg(windowStart) unexpected error: %v", err)
	}
	if _, err := parseTimeArg(args, "bad"); err == nil {
		t.Error("parseTimeArg(bad) expected error for non-RFC3339 value")
	}
	if _, err := parseTimeArg(args, "wrongType"); err == nil {
		t.Error("parseTimeArg(wrongType) expected error for non-string value")
	}
	if _, err := parseTimeArg(args, "missing"); err == nil {
		t.Error("parseTimeArg(missing) expected error for absent value")
	}
}

func newTestServerContext(t *testing.T) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), server.Config{}, nil)
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	t.Cleanup(func() {
		_ = sc.Shutdown()
	})
	return sc
}

func callToolRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestHandleScheduleMeeting_Validation(t *testing.T) {
	sc := newTestServerContext(t)

	valid := map[string]interface{}{
		"title":           "Design review",
		"participants":    "a@example.com,b@example.com",
		"windowStart":     "2025-01-06T09:00:00Z",
		"windowEnd":       "2025-01-10T17:00:00Z",
		"durationMinutes": float64(30),
	}

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{name: "missing title", mutate: func(a map[string]interface{}) { delete(a, "title") }},
		{name: "missing participants", mutate: func(a map[string]interface{}) { delete(a, "participants") }},
		{name: "blank participants", mutate: func(a map[string]interface{}) { a["participants"] = " , " }},
		{name: "bad window start", mutate: func(a map[string]interface{}) { a["windowStart"] = "tomorrow" }},
		{name: "missing duration", mutate: func(a map[string]interface{}) { delete(a, "durationMinutes") }},
		{name: "negative duration", mutate: func(a map[string]interface{}) { a["durationMinutes"] = float64(-5) }},
		{name: "bad meeting type", mutate: func(a map[string]interface{}) { a["meetingType"] = "standup" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := make(map[string]interface{}, len(valid))
			for k, v := range valid {
				args[k] = v
			}
			tt.mutate(args)

			result, err := handleScheduleMeeting(context.Background(), callToolRequest(args), sc)
			if err != nil {
				t.Fatalf("handler returned Go error: %v", err)
			}
			if result == nil || !result.IsError {
				t.Error("expected error result for invalid arguments")
			}
		})
	}
}

func TestHandleScheduleMeeting_RequiresLLM(t *testing.T) {
	sc := newTestServerContext(t)

	args := map[string]interface{}{
		"title":           "Design review",
		"participants":    "a@example.com",
		"windowStart":     "2025-01-06T09:00:00Z",
		"windowEnd":       "2025-01-10T17:00:00Z",
		"durationMinutes": float64(30),
	}

	result, err := handleScheduleMeeting(context.Background(), callToolRequest(args), sc)
	if err != nil {
		t.Fatalf("handler returned Go error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Error("expected error result without a configured LLM")
	}
}

func TestHandleResolveConflicts_Validation(t *testing.T) {
	sc := newTestServerContext(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{
			name: "missing title",
			args: map[string]interface{}{
				"durationMinutes": float64(30),
				"conflicts":       `[{"participantId":"a@example.com","reason":"busy"}]`,
			},
		},
		{
			name: "missing conflicts",
			args: map[string]interface{}{
				"title":           "Design review",
				"durationMinutes": float64(30),
			},
		},
		{
			name: "malformed conflicts JSON",
			args: map[string]interface{}{
				"title":           "Design review",
				"durationMinutes": float64(30),
				"conflicts":       "not json",
			},
		},
		{
			name: "no LLM configured",
			args: map[string]interface{}{
				"title":           "Design review",
				"durationMinutes": float64(30),
				"conflicts":       `[{"participantId":"a@example.com","reason":"busy"}]`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleResolveConflicts(context.Background(), callToolRequest(tt.args), sc)
			if err != nil {
				t.Fatalf("handler returned Go error: %v", err)
			}
			if result == nil || !result.IsError {
				t.Error("expected error result")
			}
		})
	}
}

func TestHandleResolveAttendees_PassthroughEmails(t *testing.T) {
	sc := newTestServerContext(t)

	args := map[string]interface{}{
		"attendees": "ada@example.com, bob@example.com",
	}

	result, err := handleResolveAttendees(context.Background(), callToolRequest(args), sc)
	if err != nil {
		t.Fatalf("handler returned Go error: %v", err)
	}
	if result == nil || result.IsError {
		t.Fatalf("expected success result, got %+v", result)
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("expected text content")
	}
	for _, want := range []string{"ada@example.com", "bob@example.com", "email_direct"} {
		if !strings.Contains(text.Text, want) {
			t.Errorf("response missing %q:\n%s", want, text.Text)
		}
	}
}

func TestHandleGetAvailability_RequiresCalendar(t *testing.T) {
	sc := newTestServerContext(t)

	args := map[string]interface{}{
		"participants": "a@example.com",
		"windowStart":  "2025-01-06T09:00:00Z",
		"windowEnd":    "2025-01-06T17:00:00Z",
		"account":      "no-such-account",
	}

	result, err := handleGetAvailability(context.Background(), callToolRequest(args), sc)
	if err != nil {
		t.Fatalf("handler returned Go error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Error("expected error result for account without a Google token")
	}
}

func TestHandleFindSlots_Validation(t *testing.T) {
	sc := newTestServerContext(t)

	valid := map[string]interface{}{
		"participants":    "a@example.com,b@example.com",
		"windowStart":     "2025-01-06T09:00:00Z",
		"windowEnd":       "2025-01-06T17:00:00Z",
		"durationMinutes": float64(30),
		"account":         "no-such-account",
	}

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{"missing participants", func(m map[string]interface{}) { delete(m, "participants") }},
		{"missing windowStart", func(m map[string]interface{}) { delete(m, "windowStart") }},
		{"bad windowEnd", func(m map[string]interface{}) { m["windowEnd"] = "tomorrow" }},
		{"zero duration", func(m map[string]interface{}) { m["durationMinutes"] = float64(0) }},
		{"no calendar token", func(m map[string]interface{}) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := make(map[string]interface{}, len(valid))
			for k, v := range valid {
				args[k] = v
			}
			tt.mutate(args)

			result, err := handleFindSlots(context.Background(), callToolRequest(args), sc)
			if err != nil {
				t.Fatalf("handler returned Go error: %v", err)
			}
			if result == nil || !result.IsError {
				t.Error("expected error result")
			}
		})
	}
}

func TestHandleCancelEvent_Validation(t *testing.T) {
	sc := newTestServerContext(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing eventId", map[string]interface{}{}},
		{"empty eventId", map[string]interface{}{"eventId": ""}},
		{"no calendar token", map[string]interface{}{
			"eventId": "evt-123",
			"account": "no-such-account",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleCancelEvent(context.Background(), callToolRequest(tt.args), sc)
			if err != nil {
				t.Fatalf("handler returned Go error: %v", err)
			}
			if result == nil || !result.IsError {
				t.Error("expected error result")
			}
		})
	}
}

type errChat struct{}

func (errChat) Complete(context.Context, llm.Request) (*llm.Response, error) {
	return nil, context.Canceled
}

func TestHandleScheduleMeeting_RecordsRunMetric(t *testing.T) {
	sc := newTestServerContext(t)
	sc.SetChatClient(errChat{})
	sc.SetCalendarClientForAccount("default", &calendar.Client{})

	ctx := context.Background()
	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: instrumentation.ExporterPrometheus,
		TracingExporter: instrumentation.ExporterNone,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	sc.SetMetrics(provider.Metrics())

	// The window is inverted, so the run fails validation without touching
	// any backing service, but the run metric is still recorded.
	result, err := handleScheduleMeeting(ctx, callToolRequest(map[string]interface{}{
		"title":           "Design review",
		"participants":    "a@x.com,b@x.com",
		"windowStart":     "2026-09-07T18:00:00Z",
		"windowEnd":       "2026-09-07T09:00:00Z",
		"durationMinutes": float64(30),
	}), sc)
	if err != nil {
		t.Fatalf("handleScheduleMeeting() error = %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for an inverted window")
	}

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "scheduling_runs_total") {
		t.Error("expected scheduling_runs_total in the metrics scrape")
	}
}
