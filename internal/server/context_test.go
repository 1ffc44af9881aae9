package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atomhq/atom-agent/internal/calendar"
	"github.com/atomhq/atom-agent/internal/contacts"
	"github.com/atomhq/atom-agent/internal/gmail"
	"github.com/atomhq/atom-agent/internal/instrumentation"
	"github.com/atomhq/atom-agent/internal/llm"
)

func newTestContext(t *testing.T, cfg Config) *ServerContext {
	t.Helper()
	sc, err := NewServerContext(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() {
		_ = sc.Shutdown()
	})
	return sc
}

func TestNewServerContext_Defaults(t *testing.T) {
	sc := newTestContext(t, Config{})

	if sc.ChatClient() != nil {
		t.Error("expected no chat client without an API key")
	}
	if sc.guard == nil {
		t.Error("expected in-memory idempotency guard by default")
	}
	if sc.Config().OpenAIModel != llm.DefaultModel {
		t.Errorf("OpenAIModel = %q, want default %q", sc.Config().OpenAIModel, llm.DefaultModel)
	}
}

func TestNewServerContext_InvalidSlackToken(t *testing.T) {
	_, err := NewServerContext(context.Background(), Config{SlackToken: "not-a-slack-token"}, nil)
	if err == nil {
		t.Fatal("expected error for invalid Slack token")
	}
	if !strings.Contains(err.Error(), "slack client") {
		t.Errorf("error = %v, want slack client wrapping", err)
	}
}

func TestSchedulerForAccount_RequiresLLM(t *testing.T) {
	sc := newTestContext(t, Config{})

	_, err := sc.SchedulerForAccount("default")
	if err == nil {
		t.Fatal("expected error without an OpenAI API key")
	}
	if !strings.Contains(err.Error(), "OpenAI API key not configured") {
		t.Errorf("error = %v, want missing API key message", err)
	}
}

func TestSchedulerForAccount_RequiresCalendarToken(t *testing.T) {
	sc := newTestContext(t, Config{OpenAIAPIKey: "sk-test"})

	_, err := sc.SchedulerForAccount("no-such-account")
	if err == nil {
		t.Fatal("expected error for account without a Google token")
	}
	if !strings.Contains(err.Error(), "no Calendar client available") {
		t.Errorf("error = %v, want missing Calendar client message", err)
	}
}

func TestConflictResolver(t *testing.T) {
	sc := newTestContext(t, Config{})

	if _, err := sc.ConflictResolver(); err == nil {
		t.Error("expected error without an OpenAI API key")
	}

	sc.SetChatClient(llm.NewOpenAIClient("sk-test", llm.DefaultModel))
	cr, err := sc.ConflictResolver()
	if err != nil {
		t.Fatalf("ConflictResolver() error = %v", err)
	}
	if cr == nil {
		t.Fatal("ConflictResolver() returned nil")
	}
}

func TestResolverForAccount_WithoutSources(t *testing.T) {
	sc := newTestContext(t, Config{})

	// No directory, contacts, or CRM configured; the resolver still works
	// and passes raw email addresses through.
	r := sc.ResolverForAccount("default")
	if r == nil {
		t.Fatal("ResolverForAccount() returned nil")
	}

	resolved, unresolved, err := r.ResolveEmails(context.Background(), []string{"ada@example.com"}, "org")
	if err != nil {
		t.Fatalf("ResolveEmails() error = %v", err)
	}
	if len(resolved) != 1 || resolved[0] != "ada@example.com" {
		t.Errorf("resolved = %v, want passthrough email", resolved)
	}
	if len(unresolved) != 0 {
		t.Errorf("unresolved = %v, want none", unresolved)
	}
}

func TestShutdown(t *testing.T) {
	sc, err := NewServerContext(context.Background(), Config{}, nil)
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}

	if sc.IsShutdown() {
		t.Error("IsShutdown() = true before Shutdown()")
	}

	if err := sc.Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if !sc.IsShutdown() {
		t.Error("IsShutdown() = false after Shutdown()")
	}
	if sc.Context().Err() == nil {
		t.Error("server context not cancelled after Shutdown()")
	}

	// Shutdown is idempotent
	if err := sc.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestClientAccountRegistry(t *testing.T) {
	sc := newTestContext(t, Config{})

	cal := &calendar.Client{}
	sc.SetCalendarClientForAccount("work", cal)
	if sc.CalendarClientForAccount("work") != cal {
		t.Error("expected registered Calendar client to be returned")
	}

	sc.SetCalendarClientForAccount("default", cal)
	if sc.CalendarClient() != cal {
		t.Error("CalendarClient() should return the default account client")
	}

	gm := &gmail.Client{}
	sc.SetGmailClientForAccount("work", gm)
	if sc.GmailClientForAccount("work") != gm {
		t.Error("expected registered Gmail client to be returned")
	}

	ct := &contacts.Client{}
	sc.SetContactsClientForAccount("work", ct)
	if sc.ContactsClientForAccount("work") != ct {
		t.Error("expected registered Contacts client to be returned")
	}
}

type stubChat struct {
	resp *llm.Response
	err  error
}

func (s *stubChat) Complete(context.Context, llm.Request) (*llm.Response, error) {
	return s.resp, s.err
}

func TestMeteredChat_PassesThroughAndRecords(t *testing.T) {
	sc := newTestContext(t, Config{})
	sc.SetChatClient(&stubChat{resp: &llm.Response{Content: "ok"}})

	mc := &meteredChat{sc: sc, purpose: instrumentation.PurposeRanking}

	// No metrics recorder configured yet.
	resp, err := mc.Complete(context.Background(), llm.Request{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q, want passthrough response", resp.Content)
	}

	provider := createTestProvider(t)
	sc.SetMetrics(provider.Metrics())
	if _, err := mc.Complete(context.Background(), llm.Request{}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !scrapeContains(t, provider, "llm_requests_total") {
		t.Error("expected llm_requests_total in the metrics scrape")
	}
}

func TestRecordNotification(t *testing.T) {
	sc := newTestContext(t, Config{})

	// Safe with no recorder configured.
	sc.recordNotification(context.Background(), instrumentation.ChannelEmail, nil)

	provider := createTestProvider(t)
	sc.SetMetrics(provider.Metrics())
	sc.recordNotification(context.Background(), instrumentation.ChannelEmail, nil)
	sc.recordNotification(context.Background(), instrumentation.ChannelChat, errors.New("channel archived"))
	if !scrapeContains(t, provider, "notifications_total") {
		t.Error("expected notifications_total in the metrics scrape")
	}
}

func scrapeContains(t *testing.T, provider *instrumentation.Provider, metric string) bool {
	t.Helper()
	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return strings.Contains(rec.Body.String(), metric)
}
