package scheduling

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConflicts_ReturnsModelText(t *testing.T) {
	chat := &fakeChat{content: "Move the meeting to 14:00, or make Carol's attendance optional."}
	resolver := NewConflictResolver(chat, "", nil)

	got := resolver.ResolveConflicts(context.Background(), testRequest("a@x.com"), []ParticipantConflict{
		{ParticipantID: "carol@x.com", Reason: "standing 1:1 at the proposed time"},
	})

	assert.Equal(t, "Move the meeting to 14:00, or make Carol's attendance optional.", got)
	require.Len(t, chat.req.Messages, 2)
	assert.Contains(t, chat.req.Messages[1].Content, "carol@x.com")
	assert.False(t, chat.req.JSONResponse, "conflict guidance is plain text")
}

func TestResolveConflicts_FallsBackOnError(t *testing.T) {
	chat := &fakeChat{err: fmt.Errorf("model unavailable")}
	resolver := NewConflictResolver(chat, "", nil)

	got := resolver.ResolveConflicts(context.Background(), testRequest("a@x.com"), []ParticipantConflict{
		{ParticipantID: "carol@x.com", Reason: "busy"},
	})
	assert.Equal(t, conflictFallback, got)
}

func TestResolveConflicts_FallsBackOnEmptyReply(t *testing.T) {
	chat := &fakeChat{content: "   \n"}
	resolver := NewConflictResolver(chat, "", nil)

	got := resolver.ResolveConflicts(context.Background(), testRequest("a@x.com"), []ParticipantConflict{
		{ParticipantID: "carol@x.com", Reason: "busy"},
	})
	assert.Equal(t, conflictFallback, got)
}

func TestResolveConflicts_NoConflicts(t *testing.T) {
	chat := &fakeChat{content: "should not be called"}
	resolver := NewConflictResolver(chat, "", nil)

	got := resolver.ResolveConflicts(context.Background(), testRequest("a@x.com"), nil)
	assert.Equal(t, "No conflicts to resolve.", got)
	assert.Empty(t, chat.req.Messages, "no model call without conflicts")
}
