package scheduling

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// SlotPriority ranks how desirable a free slot is for the meeting.
type SlotPriority string

const (
	PriorityHigh   SlotPriority = "high"
	PriorityMedium SlotPriority = "medium"
	PriorityLow    SlotPriority = "low"
)

// MeetingType categorizes a meeting request. Team meetings and large
// meetings additionally trigger a chat broadcast on creation.
type MeetingType string

const (
	MeetingTypeInternal MeetingType = "internal"
	MeetingTypeClient   MeetingType = "client"
	MeetingTypeExternal MeetingType = "external"
	MeetingTypeTeam     MeetingType = "team"
)

// ParseMeetingType normalizes a user-supplied meeting type. The empty string
// maps to internal.
func ParseMeetingType(s string) (MeetingType, error) {
	t := MeetingType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case "":
		return MeetingTypeInternal, nil
	case MeetingTypeInternal, MeetingTypeClient, MeetingTypeExternal, MeetingTypeTeam:
		return t, nil
	default:
		return "", fmt.Errorf("invalid meeting type %q, must be one of: internal, client, external, team", s)
	}
}

// MeetingRequest is the immutable input to one scheduling run.
type MeetingRequest struct {
	OrganizerID       string
	Title             string
	ParticipantEmails []string
	WindowStart       time.Time
	WindowEnd         time.Time
	Constraints       []string
	MeetingType       MeetingType
	DurationMinutes   int

	// IdempotencyKey guards meeting creation against duplicate runs.
	// When empty, a key is derived from the request fingerprint.
	IdempotencyKey string
}

// Validate checks the request shape before any external call is made.
func (r *MeetingRequest) Validate() error {
	if r.OrganizerID == "" {
		return fmt.Errorf("organizer is required")
	}
	if len(r.ParticipantEmails) == 0 {
		return fmt.Errorf("at least one participant is required")
	}
	if r.DurationMinutes <= 0 {
		return fmt.Errorf("duration must be positive, got %d minutes", r.DurationMinutes)
	}
	if !r.WindowStart.Before(r.WindowEnd) {
		return fmt.Errorf("window start must be before window end")
	}
	return nil
}

// Duration returns the meeting duration.
func (r *MeetingRequest) Duration() time.Duration {
	return time.Duration(r.DurationMinutes) * time.Minute
}

// Fingerprint returns a stable hash identifying the request for idempotency
// purposes: same organizer, title, participants, window, and duration produce
// the same fingerprint regardless of participant order.
func (r *MeetingRequest) Fingerprint() string {
	participants := make([]string, len(r.ParticipantEmails))
	copy(participants, r.ParticipantEmails)
	sort.Strings(participants)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%d|%d",
		r.OrganizerID,
		r.Title,
		strings.Join(participants, ","),
		r.WindowStart.Unix(),
		r.WindowEnd.Unix(),
		r.DurationMinutes,
	)
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// TimeSlot is a candidate or known-free interval.
type TimeSlot struct {
	Start    time.Time    `json:"start"`
	End      time.Time    `json:"end"`
	Priority SlotPriority `json:"priority"`
	Reason   string       `json:"reason,omitempty"`
}

// CalendarEventSummary is a minimal projection of a conflicting event, used
// only for ranking context.
type CalendarEventSummary struct {
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParticipantAvailability is one participant's availability over the
// requested window. Produced by the availability provider, read-only
// thereafter; its lifetime is one orchestration call.
type ParticipantAvailability struct {
	ParticipantID     string                 `json:"participantId"`
	Email             string                 `json:"email"`
	DisplayName       string                 `json:"displayName"`
	Timezone          string                 `json:"timezone"`
	AvailableSlots    []TimeSlot             `json:"availableSlots"`
	ConflictingEvents []CalendarEventSummary `json:"conflictingEvents"`
}

// RankedSuggestion is one candidate meeting time proposed by the ranker.
type RankedSuggestion struct {
	ProposedTime            time.Time `json:"proposedTime"`
	ParticipantsAvailable   []string  `json:"participantsAvailable"`
	ConflictingParticipants []string  `json:"conflictingParticipants"`
	Score                   int       `json:"score"`
	Reasoning               string    `json:"reasoning"`
}

// RankerResult is the ranker's output: suggestions ordered best-first plus an
// overall free-text recommendation.
type RankerResult struct {
	Suggestions    []RankedSuggestion `json:"suggestions"`
	Recommendation string             `json:"recommendation"`
}

// SchedulingOutcome is the terminal value returned to the caller.
type SchedulingOutcome struct {
	Success            bool               `json:"success"`
	Suggestions        []RankedSuggestion `json:"suggestions"`
	RecommendationText string             `json:"recommendationText,omitempty"`
	MeetingCreated     bool               `json:"meetingCreated"`
	MeetingID          string             `json:"meetingId,omitempty"`

	// Warnings lists participants whose availability lookup failed and
	// other soft failures that did not abort the run.
	Warnings []string `json:"warnings,omitempty"`
}

// CreationResult is the meeting creator's result. Failures are soft: the
// orchestrator reports them through the outcome instead of aborting the run.
type CreationResult struct {
	Success     bool   `json:"success"`
	MeetingID   string `json:"meetingId,omitempty"`
	Error       string `json:"error,omitempty"`
	InvitesSent bool   `json:"invitesSent"`
	Duplicate   bool   `json:"duplicate"`
}

// ParticipantConflict names a participant whose calendar conflicts with a
// proposed time, with the reason reported by the ranker.
type ParticipantConflict struct {
	ParticipantID string `json:"participantId"`
	Reason        string `json:"reason"`
}
