package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atomhq/atom-agent/internal/logging"
)

// EventInserter writes a meeting event to the organizer's calendar and
// returns the new event's ID.
type EventInserter interface {
	InsertEvent(ctx context.Context, organizerID string, event MeetingEvent) (string, error)
}

// MeetingEvent is the calendar-facing projection of an approved suggestion.
type MeetingEvent struct {
	Title       string
	Start       time.Time
	End         time.Time
	Attendees   []string
	Description string

	// SendInvites controls whether the calendar provider emails attendees.
	SendInvites bool
}

// EmailSender delivers one notification email on behalf of the organizer.
type EmailSender interface {
	SendEmail(ctx context.Context, organizerID, to, subject, body string) error
}

// ChatNotifier posts a broadcast message to a chat channel.
type ChatNotifier interface {
	PostMessage(ctx context.Context, channel, text string) error
}

// IdempotencyGuard admits a key at most once within its TTL.
type IdempotencyGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// CreatorOptions tune meeting creation behavior.
type CreatorOptions struct {
	// InviteConflictLimit suppresses calendar invites when at least this
	// many participants conflict with the chosen time.
	InviteConflictLimit int

	// BroadcastChannel receives the chat announcement for team and large
	// meetings. Empty disables broadcasting.
	BroadcastChannel string

	// IdempotencyTTL bounds how long a request fingerprint blocks repeats.
	IdempotencyTTL time.Duration
}

// DefaultInviteConflictLimit suppresses invites at two or more conflicts.
const DefaultInviteConflictLimit = 2

// DefaultIdempotencyTTL is how long duplicate requests are rejected.
const DefaultIdempotencyTTL = 24 * time.Hour

// broadcastParticipantFloor: meetings with more participants than this are
// announced even when they are not team meetings.
const broadcastParticipantFloor = 3

// Creator implements MeetingCreator over calendar, email, and chat
// collaborators. Email and chat may be nil to disable those notifications;
// the guard may be nil to disable idempotency protection.
type Creator struct {
	events EventInserter
	email  EmailSender
	chat   ChatNotifier
	guard  IdempotencyGuard
	logger *slog.Logger
	opts   CreatorOptions
}

// NewCreator wires a Creator from its collaborators.
func NewCreator(events EventInserter, email EmailSender, chat ChatNotifier, guard IdempotencyGuard, logger *slog.Logger, opts CreatorOptions) *Creator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.InviteConflictLimit <= 0 {
		opts.InviteConflictLimit = DefaultInviteConflictLimit
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = DefaultIdempotencyTTL
	}
	return &Creator{
		events: events,
		email:  email,
		chat:   chat,
		guard:  guard,
		logger: logger,
		opts:   opts,
	}
}

// shouldBroadcast reports whether the meeting warrants a chat announcement.
func shouldBroadcast(req *MeetingRequest) bool {
	return req.MeetingType == MeetingTypeTeam || len(req.ParticipantEmails) > broadcastParticipantFloor
}

// CreateMeeting materializes the suggestion: idempotency check, calendar
// event, per-participant emails, and optional chat broadcast. All failures
// are soft; they are logged and folded into the result.
func (c *Creator) CreateMeeting(ctx context.Context, suggestion RankedSuggestion, req *MeetingRequest) *CreationResult {
	log := c.logger.With(logging.Account(req.OrganizerID))

	if c.guard != nil {
		key := req.IdempotencyKey
		if key == "" {
			key = req.Fingerprint()
		}
		ok, err := c.guard.Acquire(ctx, key, c.opts.IdempotencyTTL)
		if err != nil {
			return c.failure(log, &CreationError{Op: "idempotency check", Err: err})
		}
		if !ok {
			log.Info("duplicate scheduling request, meeting not created",
				logging.Operation(logging.OpMultiUserSchedule),
				slog.String("idempotency_key", key))
			return &CreationResult{
				Success:   false,
				Duplicate: true,
				Error:     "a meeting for this request was already created",
			}
		}
	}

	start := suggestion.ProposedTime
	end := start.Add(req.Duration())
	sendInvites := len(suggestion.ConflictingParticipants) < c.opts.InviteConflictLimit

	eventID, err := c.events.InsertEvent(ctx, req.OrganizerID, MeetingEvent{
		Title:       req.Title,
		Start:       start,
		End:         end,
		Attendees:   suggestion.ParticipantsAvailable,
		Description: suggestion.Reasoning,
		SendInvites: sendInvites,
	})
	if err != nil {
		return c.failure(log, &CreationError{Op: "insert event", Err: err})
	}

	if c.email != nil {
		if err := c.notifyParticipants(ctx, suggestion, req, start, end); err != nil {
			return c.failure(log, &CreationError{Op: "notify participants", Err: err})
		}
	}

	if c.chat != nil && c.opts.BroadcastChannel != "" && shouldBroadcast(req) {
		text := fmt.Sprintf("Scheduled: %s on %s with %s",
			req.Title,
			start.Format("Mon Jan 2 15:04 MST"),
			strings.Join(suggestion.ParticipantsAvailable, ", "))
		if err := c.chat.PostMessage(ctx, c.opts.BroadcastChannel, text); err != nil {
			return c.failure(log, &CreationError{Op: "chat broadcast", Err: err})
		}
	}

	log.Info("meeting created",
		logging.Operation(logging.OpMultiUserSchedule),
		logging.MeetingID(eventID),
		slog.Bool("invites_sent", sendInvites),
		logging.ParticipantCount(len(suggestion.ParticipantsAvailable)),
		logging.Status(logging.StatusSuccess))

	return &CreationResult{
		Success:     true,
		MeetingID:   eventID,
		InvitesSent: sendInvites,
	}
}

// notifyParticipants sends one email per available participant, in order.
// The first failure aborts the remaining sends.
func (c *Creator) notifyParticipants(ctx context.Context, suggestion RankedSuggestion, req *MeetingRequest, start, end time.Time) error {
	reasoning := suggestion.Reasoning
	if reasoning == "" {
		reasoning = "This time fits the availability of the participants over the requested window."
	}
	subject := fmt.Sprintf("Meeting scheduled: %s", req.Title)
	for _, to := range suggestion.ParticipantsAvailable {
		body := fmt.Sprintf(
			"Hi,\n\nA meeting %q has been scheduled for %s until %s.\n\n%s\n",
			req.Title,
			start.Format("Monday, January 2 at 15:04 MST"),
			end.Format("15:04 MST"),
			reasoning,
		)
		if err := c.email.SendEmail(ctx, req.OrganizerID, to, subject, body); err != nil {
			return fmt.Errorf("send to %s: %w", to, err)
		}
	}
	return nil
}

// failure logs a creation error and converts it into a soft result.
func (c *Creator) failure(log *slog.Logger, err error) *CreationResult {
	log.Error("meeting creation failed",
		logging.Operation(logging.OpCreateMeetingError),
		logging.Err(err))
	return &CreationResult{Success: false, Error: err.Error()}
}
