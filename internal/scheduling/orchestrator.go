package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/atomhq/atom-agent/internal/logging"
)

// AvailabilityProvider fetches one participant's availability over a window.
type AvailabilityProvider interface {
	UserAvailability(ctx context.Context, email string, windowStart, windowEnd time.Time) (*ParticipantAvailability, error)
}

// AttendeeResolver maps free-form participant references (emails, names) to
// concrete email addresses before availability is fetched.
type AttendeeResolver interface {
	ResolveEmails(ctx context.Context, refs []string, requesterID string) (resolved []string, unresolved []string, err error)
}

// MeetingCreator materializes an approved suggestion: calendar event,
// notifications, broadcast. Failures are reported in the result, not
// returned as errors.
type MeetingCreator interface {
	CreateMeeting(ctx context.Context, suggestion RankedSuggestion, req *MeetingRequest) *CreationResult
}

// Options tune the orchestrator's approval behavior.
type Options struct {
	// ApprovalRatio is the fraction of requested participants that must be
	// available at the top suggestion for the meeting to be auto-created.
	ApprovalRatio float64
}

// DefaultApprovalRatio auto-approves when three quarters of the requested
// participants are available.
const DefaultApprovalRatio = 0.75

// Scheduler orchestrates one multi-user scheduling run: availability fan-out,
// ranking, and conditional meeting creation.
type Scheduler struct {
	availability AvailabilityProvider
	ranker       Ranker
	creator      MeetingCreator
	resolver     AttendeeResolver
	logger       *slog.Logger
	opts         Options
}

// NewScheduler wires a scheduler from its collaborators. The resolver may be
// nil, in which case participant references are treated as email addresses.
func NewScheduler(availability AvailabilityProvider, ranker Ranker, creator MeetingCreator, resolver AttendeeResolver, logger *slog.Logger, opts Options) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ApprovalRatio <= 0 || opts.ApprovalRatio > 1 {
		opts.ApprovalRatio = DefaultApprovalRatio
	}
	return &Scheduler{
		availability: availability,
		ranker:       ranker,
		creator:      creator,
		resolver:     resolver,
		logger:       logger,
		opts:         opts,
	}
}

// approvalThreshold returns the minimum number of available participants the
// top suggestion needs for auto-creation.
func approvalThreshold(ratio float64, participants int) int {
	return int(math.Ceil(ratio * float64(participants)))
}

// ScheduleMultiUserMeeting runs the full pipeline. It returns an error only
// when nothing could be produced at all: invalid request, every availability
// lookup failed, or the ranking call failed. Partial availability failures
// and creation failures are reported through the outcome's Warnings.
func (s *Scheduler) ScheduleMultiUserMeeting(ctx context.Context, req *MeetingRequest) (*SchedulingOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid meeting request: %w", err)
	}

	log := s.logger.With(
		logging.Operation(logging.OpMultiUserSchedule),
		logging.Account(req.OrganizerID),
	)
	log.Info("multi-user scheduling run started",
		logging.ParticipantCount(len(req.ParticipantEmails)),
		slog.Time("window_start", req.WindowStart),
		slog.Time("window_end", req.WindowEnd),
		slog.Int("duration_minutes", req.DurationMinutes))

	outcome := &SchedulingOutcome{}

	// Resolve participant references to emails before touching calendars.
	emails := req.ParticipantEmails
	if s.resolver != nil {
		resolved, unresolved, err := s.resolver.ResolveEmails(ctx, req.ParticipantEmails, req.OrganizerID)
		if err != nil {
			return nil, fmt.Errorf("resolve attendees: %w", err)
		}
		for _, ref := range unresolved {
			outcome.Warnings = append(outcome.Warnings,
				fmt.Sprintf("could not resolve participant %q to an email address", ref))
		}
		if len(resolved) == 0 {
			return nil, fmt.Errorf("no participant could be resolved to an email address")
		}
		emails = resolved
		// The rest of the run, including suggestion validation and the
		// approval threshold, operates on the resolved set. The caller's
		// request is left untouched.
		resolvedReq := *req
		resolvedReq.ParticipantEmails = resolved
		req = &resolvedReq
	}

	participants, warnings := s.fetchAvailability(ctx, log, emails, req.WindowStart, req.WindowEnd)
	outcome.Warnings = append(outcome.Warnings, warnings...)
	if len(participants) == 0 {
		err := &AvailabilityFetchError{
			Participants: emails,
			Err:          fmt.Errorf("no availability data retrieved"),
		}
		log.Error("availability fan-out produced no data",
			logging.Operation(logging.OpMultiUserScheduleError),
			logging.ParticipantCount(len(emails)),
			logging.Err(err))
		return nil, err
	}

	result, err := s.ranker.FindOptimalMeetingTimes(ctx, participants, req)
	if err != nil {
		return nil, err
	}

	outcome.Success = true
	outcome.Suggestions = result.Suggestions
	outcome.RecommendationText = result.Recommendation

	if len(result.Suggestions) == 0 {
		log.Info("no viable meeting times found",
			logging.ParticipantCount(len(emails)),
			logging.Status(logging.StatusSuccess))
		return outcome, nil
	}

	top := result.Suggestions[0]
	required := approvalThreshold(s.opts.ApprovalRatio, len(req.ParticipantEmails))
	if len(top.ParticipantsAvailable) < required {
		log.Info("top suggestion below approval threshold, not creating meeting",
			slog.String("suggestion", describeSuggestion(top)),
			slog.Int("required", required),
			logging.Status(logging.StatusSuccess))
		return outcome, nil
	}

	res := s.creator.CreateMeeting(ctx, top, req)
	outcome.MeetingCreated = res.Success
	outcome.MeetingID = res.MeetingID
	if !res.Success && res.Error != "" {
		outcome.Warnings = append(outcome.Warnings, res.Error)
	}

	log.Info("scheduling run complete",
		slog.String("suggestion", describeSuggestion(top)),
		slog.Bool("meeting_created", res.Success),
		logging.ParticipantCount(len(emails)),
		logging.Status(logging.StatusSuccess))

	return outcome, nil
}

// fetchAvailability queries all participants concurrently and partitions the
// results: successful lookups are returned in request order, failures become
// warning strings.
func (s *Scheduler) fetchAvailability(ctx context.Context, log *slog.Logger, emails []string, windowStart, windowEnd time.Time) ([]ParticipantAvailability, []string) {
	type lookup struct {
		availability *ParticipantAvailability
		err          error
	}

	results := make([]lookup, len(emails))
	var wg sync.WaitGroup
	for i, email := range emails {
		wg.Add(1)
		go func(i int, email string) {
			defer wg.Done()
			a, err := s.availability.UserAvailability(ctx, email, windowStart, windowEnd)
			results[i] = lookup{availability: a, err: err}
		}(i, email)
	}
	wg.Wait()

	var participants []ParticipantAvailability
	var warnings []string
	for i, r := range results {
		if r.err != nil {
			log.Warn("availability lookup failed",
				slog.String("participant", logging.AnonymizeEmail(emails[i])),
				logging.Err(r.err))
			warnings = append(warnings,
				fmt.Sprintf("availability lookup failed for %s: %v", emails[i], r.err))
			continue
		}
		participants = append(participants, *r.availability)
	}
	return participants, warnings
}
