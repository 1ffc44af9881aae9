package scheduling

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/atomhq/atom-agent/internal/llm"
	"github.com/atomhq/atom-agent/internal/logging"
)

const conflictSystemPrompt = `You are a scheduling assistant. Some meeting participants have calendar conflicts with a proposed time. Suggest, in two or three sentences of plain text, how the organizer could resolve the conflicts: alternative times, shortening the meeting, or making attendance optional for specific people. Do not invent availability you were not given.`

// conflictFallback is returned when the model produces nothing usable.
const conflictFallback = "Unable to generate conflict resolution suggestions right now. Consider proposing an alternative time to the conflicting participants or marking their attendance optional."

// ConflictResolver produces advisory, free-text guidance for resolving
// participant conflicts at a proposed meeting time.
type ConflictResolver struct {
	chat   llm.ChatClient
	model  string
	logger *slog.Logger
}

// NewConflictResolver creates a resolver using the given chat client.
func NewConflictResolver(chat llm.ChatClient, model string, logger *slog.Logger) *ConflictResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConflictResolver{chat: chat, model: model, logger: logger}
}

// ResolveConflicts asks the model for resolution guidance. It never fails
// hard: model errors or empty replies yield a generic fallback suggestion.
func (r *ConflictResolver) ResolveConflicts(ctx context.Context, req *MeetingRequest, conflicts []ParticipantConflict) string {
	if len(conflicts) == 0 {
		return "No conflicts to resolve."
	}

	payload := struct {
		Title           string                `json:"title"`
		DurationMinutes int                   `json:"durationMinutes"`
		Conflicts       []ParticipantConflict `json:"conflicts"`
	}{
		Title:           req.Title,
		DurationMinutes: req.DurationMinutes,
		Conflicts:       conflicts,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return conflictFallback
	}

	resp, err := r.chat.Complete(ctx, llm.Request{
		Model: r.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: conflictSystemPrompt},
			{Role: llm.RoleUser, Content: string(body)},
		},
	})
	if err != nil {
		r.logger.Warn("conflict resolution call failed, using fallback",
			logging.Operation(logging.OpResolveConflicts),
			logging.Err(err))
		return conflictFallback
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return conflictFallback
	}
	return text
}
