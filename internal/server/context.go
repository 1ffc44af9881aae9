package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"

	"github.com/atomhq/atom-agent/internal/calendar"
	"github.com/atomhq/atom-agent/internal/contacts"
	"github.com/atomhq/atom-agent/internal/directory"
	"github.com/atomhq/atom-agent/internal/gmail"
	"github.com/atomhq/atom-agent/internal/hubspot"
	"github.com/atomhq/atom-agent/internal/idempotency"
	"github.com/atomhq/atom-agent/internal/instrumentation"
	"github.com/atomhq/atom-agent/internal/llm"
	"github.com/atomhq/atom-agent/internal/logging"
	"github.com/atomhq/atom-agent/internal/resolver"
	"github.com/atomhq/atom-agent/internal/scheduling"
	"github.com/atomhq/atom-agent/internal/slack"
)

// Config collects the external service configuration for the server.
// Everything except the OpenAI key is optional; features backed by an
// unconfigured service are skipped at wiring time.
type Config struct {
	OpenAIAPIKey string
	OpenAIModel  string

	// OpenAIBaseURL points the chat client at an OpenAI-compatible
	// endpoint. Empty means the public OpenAI API.
	OpenAIBaseURL string

	SlackToken   string
	SlackChannel string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PostgresDSN string

	HubSpotAPIKey string

	// ApprovalRatio is the fraction of participants that must be free
	// before a suggestion is auto-created. Zero means the default.
	ApprovalRatio float64

	// InviteConflictLimit suppresses invites when a suggestion has at
	// least this many conflicting participants. Zero means the default.
	InviteConflictLimit int
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    Config
	logger *slog.Logger

	calendarClients map[string]*calendar.Client // Maps account name to Calendar client
	gmailClients    map[string]*gmail.Client    // Maps account name to Gmail client
	contactsClients map[string]*contacts.Client // Maps account name to Contacts client

	chat      llm.ChatClient
	slack     *slack.Client
	guard     scheduling.IdempotencyGuard
	directory *directory.Store
	hubspot   *hubspot.Client

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context and connects the shared
// backing services. Google clients are lazily initialized per account on
// first use.
func NewServerContext(ctx context.Context, cfg Config, logger *slog.Logger) (*ServerContext, error) {
	if logger == nil {
		logger = slog.Default()
	}
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		cfg:             cfg,
		logger:          logger,
		calendarClients: make(map[string]*calendar.Client),
		gmailClients:    make(map[string]*gmail.Client),
		contactsClients: make(map[string]*contacts.Client),
	}

	if cfg.OpenAIModel == "" {
		sc.cfg.OpenAIModel = llm.DefaultModel
	}
	if cfg.OpenAIAPIKey != "" {
		if cfg.OpenAIBaseURL != "" {
			clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
			clientConfig.BaseURL = cfg.OpenAIBaseURL
			sc.chat = llm.NewOpenAIClientWithConfig(clientConfig, sc.cfg.OpenAIModel)
		} else {
			sc.chat = llm.NewOpenAIClient(cfg.OpenAIAPIKey, sc.cfg.OpenAIModel)
		}
	}

	if cfg.SlackToken != "" {
		client, err := slack.NewClient(cfg.SlackToken)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("slack client: %w", err)
		}
		sc.slack = client
	}

	if cfg.RedisAddr != "" {
		guard, err := idempotency.NewRedisGuard(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("redis idempotency guard: %w", err)
		}
		sc.guard = guard
	} else {
		sc.guard = idempotency.NewMemoryGuard()
	}

	if cfg.PostgresDSN != "" {
		store, err := directory.Open(cfg.PostgresDSN)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("user directory: %w", err)
		}
		sc.directory = store
	}

	if cfg.HubSpotAPIKey != "" {
		sc.hubspot = hubspot.NewClient(cfg.HubSpotAPIKey)
	}

	// Try to create a default Calendar client, but don't fail if the token
	// is missing. Clients will be lazily initialized when first needed.
	if calendar.HasTokenForAccount("default") {
		client, err := calendar.NewClientForAccount(shutdownCtx, "default")
		if err != nil {
			logger.Warn("failed to create Calendar client for default account",
				logging.Service("calendar"), logging.Err(err))
		} else {
			sc.calendarClients["default"] = client
		}
	}

	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the server configuration.
func (sc *ServerContext) Config() Config {
	return sc.cfg
}

// CalendarClientForAccount returns the Calendar client for a specific account
// Creates and caches the client if it doesn't exist yet
// Returns nil if the account has no token
func (sc *ServerContext) CalendarClientForAccount(account string) *calendar.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.calendarClients[account]; ok {
		return client
	}

	if !calendar.HasTokenForAccount(account) {
		return nil
	}

	client, err := calendar.NewClientForAccount(sc.ctx, account)
	if err != nil {
		sc.logger.Warn("failed to create Calendar client",
			logging.Service("calendar"), logging.Account(account), logging.Err(err))
		return nil
	}

	sc.calendarClients[account] = client
	return client
}

// CalendarClient returns the Calendar client for the default account
func (sc *ServerContext) CalendarClient() *calendar.Client {
	return sc.CalendarClientForAccount("default")
}

// SetCalendarClientForAccount sets the Calendar client for a specific account
func (sc *ServerContext) SetCalendarClientForAccount(account string, client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarClients[account] = client
}

// GmailClientForAccount returns the Gmail client for a specific account
// Creates and caches the client if it doesn't exist yet
// Returns nil if the account has no token
func (sc *ServerContext) GmailClientForAccount(account string) *gmail.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.gmailClients[account]; ok {
		return client
	}

	if !gmail.HasTokenForAccount(account) {
		return nil
	}

	client, err := gmail.NewClientForAccount(sc.ctx, account)
	if err != nil {
		sc.logger.Warn("failed to create Gmail client",
			logging.Service("gmail"), logging.Account(account), logging.Err(err))
		return nil
	}

	sc.gmailClients[account] = client
	return client
}

// SetGmailClientForAccount sets the Gmail client for a specific account
func (sc *ServerContext) SetGmailClientForAccount(account string, client *gmail.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.gmailClients[account] = client
}

// ContactsClientForAccount returns the People API client for a specific
// account, creating and caching it on first use. Returns nil if the account
// has no token.
func (sc *ServerContext) ContactsClientForAccount(account string) *contacts.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.contactsClients[account]; ok {
		return client
	}

	if !contacts.HasTokenForAccount(account) {
		return nil
	}

	client, err := contacts.NewClientForAccount(sc.ctx, account)
	if err != nil {
		sc.logger.Warn("failed to create Contacts client",
			logging.Service("contacts"), logging.Account(account), logging.Err(err))
		return nil
	}

	sc.contactsClients[account] = client
	return client
}

// SetContactsClientForAccount sets the Contacts client for a specific account
func (sc *ServerContext) SetContactsClientForAccount(account string, client *contacts.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.contactsClients[account] = client
}

// ChatClient returns the shared LLM client, or nil when no API key was
// configured.
func (sc *ServerContext) ChatClient() llm.ChatClient {
	return sc.chat
}

// SetChatClient replaces the shared LLM client. Used by tests.
func (sc *ServerContext) SetChatClient(chat llm.ChatClient) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.chat = chat
}

// ResolverForAccount builds an attendee resolver backed by the account's
// Google contacts plus the shared user directory and CRM. Sources that are
// unavailable for this account are simply skipped.
func (sc *ServerContext) ResolverForAccount(account string) *resolver.Resolver {
	var dir resolver.DirectoryLookup
	if sc.directory != nil {
		dir = sc.directory
	}
	var search resolver.ContactSearcher
	if client := sc.ContactsClientForAccount(account); client != nil {
		search = client
	}
	var crm resolver.CRMSearcher
	if sc.hubspot.Configured() {
		crm = sc.hubspot
	}
	return resolver.New(dir, search, crm, sc.logger)
}

// ConflictResolver returns the LLM-backed conflict advisor, or an error when
// no LLM client is configured.
func (sc *ServerContext) ConflictResolver() (*scheduling.ConflictResolver, error) {
	if sc.chat == nil {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}
	chat := &meteredChat{sc: sc, purpose: instrumentation.PurposeConflicts}
	return scheduling.NewConflictResolver(chat, sc.cfg.OpenAIModel, sc.logger), nil
}

// AvailabilityForAccount returns the free/busy service for an account, or an
// error when the account has no Google token.
func (sc *ServerContext) AvailabilityForAccount(account string) (*calendar.AvailabilityService, error) {
	client := sc.CalendarClientForAccount(account)
	if client == nil {
		return nil, fmt.Errorf("no Calendar client available for account %s", account)
	}
	return calendar.NewAvailabilityService(client), nil
}

// SchedulerForAccount wires a meeting scheduler for the given Google account.
// The account's calendar answers free/busy queries and receives the created
// event; its Gmail sends the participant notifications.
func (sc *ServerContext) SchedulerForAccount(account string) (*scheduling.Scheduler, error) {
	if sc.chat == nil {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}
	availability, err := sc.AvailabilityForAccount(account)
	if err != nil {
		return nil, err
	}

	rankerChat := &meteredChat{sc: sc, purpose: instrumentation.PurposeRanking}
	ranker := scheduling.NewLLMTimeRanker(rankerChat, sc.cfg.OpenAIModel, sc.logger)

	var chat scheduling.ChatNotifier
	if sc.slack != nil {
		chat = &chatBroadcaster{sc: sc}
	}
	creator := scheduling.NewCreator(
		&calendarInserter{sc: sc, account: account},
		&gmailSender{sc: sc, account: account},
		chat,
		sc.guard,
		sc.logger,
		scheduling.CreatorOptions{
			InviteConflictLimit: sc.cfg.InviteConflictLimit,
			BroadcastChannel:    sc.cfg.SlackChannel,
		},
	)

	return scheduling.NewScheduler(
		availability,
		ranker,
		creator,
		sc.ResolverForAccount(account),
		sc.logger,
		scheduling.Options{ApprovalRatio: sc.cfg.ApprovalRatio},
	), nil
}

// Metrics returns the metrics recorder, or nil when instrumentation is
// disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder.
func (sc *ServerContext) SetMetrics(metrics *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = metrics
}

// AuditLogger returns the audit logger, or nil when audit logging is
// disabled.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger.
func (sc *ServerContext) SetAuditLogger(auditLogger *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()

	if sc.directory != nil {
		if err := sc.directory.Close(); err != nil {
			sc.logger.Warn("failed to close user directory", logging.Err(err))
		}
	}
	if closer, ok := sc.guard.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			sc.logger.Warn("failed to close idempotency guard", logging.Err(err))
		}
	}
	return nil
}

// calendarInserter writes approved suggestions to the organizer's primary
// Google calendar.
type calendarInserter struct {
	sc      *ServerContext
	account string
}

func (i *calendarInserter) InsertEvent(ctx context.Context, organizerID string, event scheduling.MeetingEvent) (string, error) {
	_, span := instrumentation.StartUpstreamSpan(ctx, "calendar", "events.insert",
		attribute.Int(instrumentation.SpanAttrParticipants, len(event.Attendees)))
	defer span.End()

	client := i.sc.calendarClientFor(organizerID, i.account)
	if client == nil {
		err := fmt.Errorf("no Calendar client available for organizer %s", organizerID)
		instrumentation.SetSpanError(span, err)
		return "", err
	}
	summary, err := client.CreateEvent("primary", calendar.EventInput{
		Summary:     event.Title,
		Description: event.Description,
		Start:       event.Start,
		End:         event.End,
		Attendees:   event.Attendees,
		SendInvites: event.SendInvites,
	})
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", err
	}
	span.SetAttributes(attribute.String(instrumentation.SpanAttrMeetingID, summary.ID))
	instrumentation.SetSpanSuccess(span)
	return summary.ID, nil
}

// gmailSender delivers scheduling notifications through the organizer's
// Gmail account.
type gmailSender struct {
	sc      *ServerContext
	account string
}

func (s *gmailSender) SendEmail(ctx context.Context, organizerID, to, subject, body string) error {
	_, span := instrumentation.StartUpstreamSpan(ctx, "gmail", "messages.send")
	defer span.End()

	client := s.sc.gmailClientFor(organizerID, s.account)
	if client == nil {
		err := fmt.Errorf("no Gmail client available for organizer %s", organizerID)
		instrumentation.SetSpanError(span, err)
		s.sc.recordNotification(ctx, instrumentation.ChannelEmail, err)
		return err
	}
	_, err := client.SendEmail(&gmail.EmailMessage{
		To:      []string{to},
		Subject: subject,
		Body:    body,
	})
	s.sc.recordNotification(ctx, instrumentation.ChannelEmail, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return err
	}
	instrumentation.SetSpanSuccess(span)
	return nil
}

// chatBroadcaster posts the team broadcast to Slack and records the
// notification outcome.
type chatBroadcaster struct {
	sc *ServerContext
}

func (b *chatBroadcaster) PostMessage(ctx context.Context, channel, text string) error {
	err := b.sc.slack.PostMessage(ctx, channel, text)
	b.sc.recordNotification(ctx, instrumentation.ChannelChat, err)
	return err
}

func (sc *ServerContext) recordNotification(ctx context.Context, channel string, err error) {
	m := sc.Metrics()
	if m == nil {
		return
	}
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	m.RecordNotification(ctx, channel, status)
}

// meteredChat wraps the shared LLM client and records request metrics under
// the purpose it was built for.
type meteredChat struct {
	sc      *ServerContext
	purpose string
}

func (c *meteredChat) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	start := time.Now()
	resp, err := c.sc.ChatClient().Complete(ctx, req)
	if m := c.sc.Metrics(); m != nil {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		m.RecordLLMRequest(ctx, c.purpose, status, time.Since(start))
	}
	return resp, err
}

// calendarClientFor prefers a client registered under the organizer's own
// account and falls back to the account the scheduler was built for.
func (sc *ServerContext) calendarClientFor(organizerID, fallback string) *calendar.Client {
	if client := sc.CalendarClientForAccount(organizerID); client != nil {
		return client
	}
	if organizerID == fallback {
		return nil
	}
	return sc.CalendarClientForAccount(fallback)
}

func (sc *ServerContext) gmailClientFor(organizerID, fallback string) *gmail.Client {
	if client := sc.GmailClientForAccount(organizerID); client != nil {
		return client
	}
	if organizerID == fallback {
		return nil
	}
	return sc.GmailClientForAccount(fallback)
}
