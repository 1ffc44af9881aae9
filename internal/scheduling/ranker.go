package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/atomhq/atom-agent/internal/llm"
	"github.com/atomhq/atom-agent/internal/logging"
)

// Ranker turns participant availability into ranked meeting time suggestions.
type Ranker interface {
	FindOptimalMeetingTimes(ctx context.Context, participants []ParticipantAvailability, req *MeetingRequest) (*RankerResult, error)
}

const rankingSystemPrompt = `You are a scheduling assistant. Given the availability of several meeting participants, propose the best meeting times inside the requested window.

Respond with a single JSON object of the form:
{
  "suggestions": [
    {
      "proposedTime": "<RFC 3339 timestamp>",
      "participantsAvailable": ["<email>", ...],
      "conflictingParticipants": ["<email>", ...],
      "score": <0-100>,
      "reasoning": "<one sentence>"
    }
  ],
  "recommendation": "<one or two sentences summarizing the best option>"
}

Order suggestions best-first. Every proposedTime must lie inside the requested window, and every email must come from the participant list. Prefer times where all participants are free, then times inside business hours.`

// LLMTimeRanker implements Ranker with a single chat completion call.
type LLMTimeRanker struct {
	chat   llm.ChatClient
	model  string
	logger *slog.Logger
}

// NewLLMTimeRanker creates a ranker using the given chat client. An empty
// model uses the client's default.
func NewLLMTimeRanker(chat llm.ChatClient, model string, logger *slog.Logger) *LLMTimeRanker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMTimeRanker{chat: chat, model: model, logger: logger}
}

// rankingPayload is the user-message body sent to the model.
type rankingPayload struct {
	Window struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	} `json:"window"`
	DurationMinutes int                       `json:"durationMinutes"`
	MeetingType     MeetingType               `json:"meetingType"`
	Constraints     []string                  `json:"constraints,omitempty"`
	Participants    []ParticipantAvailability `json:"participants"`
}

// FindOptimalMeetingTimes sends availability to the model and parses the
// ranked suggestions out of its JSON reply. Suggestions outside the window or
// naming unknown participants are dropped.
func (r *LLMTimeRanker) FindOptimalMeetingTimes(ctx context.Context, participants []ParticipantAvailability, req *MeetingRequest) (*RankerResult, error) {
	payload := rankingPayload{
		DurationMinutes: req.DurationMinutes,
		MeetingType:     req.MeetingType,
		Constraints:     req.Constraints,
		Participants:    participants,
	}
	payload.Window.Start = req.WindowStart
	payload.Window.End = req.WindowEnd

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &RankingError{Op: "encode request", Err: err}
	}

	resp, err := r.chat.Complete(ctx, llm.Request{
		Model: r.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: rankingSystemPrompt},
			{Role: llm.RoleUser, Content: string(body)},
		},
		JSONResponse: true,
	})
	if err != nil {
		r.logger.Error("ranking call failed",
			logging.Operation(logging.OpMultiUserScheduleError),
			logging.ParticipantCount(len(participants)),
			logging.Err(err))
		return nil, &RankingError{Op: "completion", Err: err}
	}

	var result RankerResult
	if err := json.Unmarshal([]byte(resp.Content), &result); err != nil {
		r.logger.Error("ranking response was not valid JSON",
			logging.Operation(logging.OpMultiUserScheduleError),
			logging.Err(err))
		return nil, &RankingError{Op: "decode response", Err: err}
	}

	kept, dropped := ValidateSuggestions(result.Suggestions, req)
	if dropped > 0 {
		r.logger.Warn("dropped invalid ranking suggestions",
			logging.Operation(logging.OpMultiUserSchedule),
			slog.Int("dropped", dropped))
	}
	result.Suggestions = kept

	return &result, nil
}

// ValidateSuggestions filters out suggestions whose proposed time falls
// outside the request window or whose participant lists are not a subset of
// the request participants. It returns the surviving suggestions in order and
// the number dropped.
func ValidateSuggestions(suggestions []RankedSuggestion, req *MeetingRequest) ([]RankedSuggestion, int) {
	known := make(map[string]bool, len(req.ParticipantEmails))
	for _, email := range req.ParticipantEmails {
		known[email] = true
	}

	subset := func(emails []string) bool {
		for _, e := range emails {
			if !known[e] {
				return false
			}
		}
		return true
	}

	kept := make([]RankedSuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.ProposedTime.Before(req.WindowStart) || s.ProposedTime.After(req.WindowEnd) {
			continue
		}
		if !subset(s.ParticipantsAvailable) || !subset(s.ConflictingParticipants) {
			continue
		}
		kept = append(kept, s)
	}
	return kept, len(suggestions) - len(kept)
}

// describeSuggestion renders a suggestion for log output.
func describeSuggestion(s RankedSuggestion) string {
	return fmt.Sprintf("%s (%d/%d available, score %d)",
		s.ProposedTime.Format(time.RFC3339),
		len(s.ParticipantsAvailable),
		len(s.ParticipantsAvailable)+len(s.ConflictingParticipants),
		s.Score)
}
