package scheduling

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInserter struct {
	event MeetingEvent
	err   error
	calls int
}

func (f *fakeInserter) InsertEvent(_ context.Context, _ string, event MeetingEvent) (string, error) {
	f.calls++
	f.event = event
	if f.err != nil {
		return "", f.err
	}
	return "evt-42", nil
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

type fakeEmailSender struct {
	failOn string
	sent   []sentEmail
}

func (f *fakeEmailSender) SendEmail(_ context.Context, _, to, subject, body string) error {
	if to == f.failOn {
		return fmt.Errorf("smtp refused")
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

type fakeChatNotifier struct {
	err      error
	messages []string
}

func (f *fakeChatNotifier) PostMessage(_ context.Context, channel, text string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, channel+": "+text)
	return nil
}

type fakeGuard struct {
	deny bool
	err  error
	keys []string
}

func (f *fakeGuard) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return false, f.err
	}
	return !f.deny, nil
}

func newTestCreator(events *fakeInserter, email *fakeEmailSender, chat *fakeChatNotifier, guard *fakeGuard, opts CreatorOptions) *Creator {
	var (
		e EventInserter    = events
		m EmailSender      = email
		c ChatNotifier     = chat
		g IdempotencyGuard = guard
	)
	if email == nil {
		m = nil
	}
	if chat == nil {
		c = nil
	}
	if guard == nil {
		g = nil
	}
	return NewCreator(e, m, c, g, nil, opts)
}

func TestCreateMeeting_EventSpansRequestedDuration(t *testing.T) {
	req := testRequest("a@x.com", "b@x.com")
	req.DurationMinutes = 45
	suggestion := suggestionAt(2*time.Hour, []string{"a@x.com", "b@x.com"}, nil)

	events := &fakeInserter{}
	creator := newTestCreator(events, nil, nil, nil, CreatorOptions{})
	res := creator.CreateMeeting(context.Background(), suggestion, req)

	require.True(t, res.Success)
	assert.Equal(t, "evt-42", res.MeetingID)
	assert.Equal(t, suggestion.ProposedTime, events.event.Start)
	assert.Equal(t, suggestion.ProposedTime.Add(45*time.Minute), events.event.End)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, events.event.Attendees)
}

func TestCreateMeeting_InviteHeuristic(t *testing.T) {
	tests := []struct {
		name        string
		conflicting []string
		limit       int
		wantInvites bool
	}{
		{"no conflicts", nil, 0, true},
		{"one conflict under default limit", []string{"c@x.com"}, 0, true},
		{"two conflicts at default limit", []string{"c@x.com", "d@x.com"}, 0, false},
		{"custom limit of one", []string{"c@x.com"}, 1, false},
		{"custom limit of three", []string{"c@x.com", "d@x.com"}, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest("a@x.com", "b@x.com", "c@x.com", "d@x.com")
			suggestion := suggestionAt(time.Hour, []string{"a@x.com", "b@x.com"}, tt.conflicting)

			events := &fakeInserter{}
			creator := newTestCreator(events, nil, nil, nil, CreatorOptions{InviteConflictLimit: tt.limit})
			res := creator.CreateMeeting(context.Background(), suggestion, req)

			require.True(t, res.Success)
			assert.Equal(t, tt.wantInvites, res.InvitesSent)
			assert.Equal(t, tt.wantInvites, events.event.SendInvites)
		})
	}
}

func TestCreateMeeting_EmailsEachAvailableParticipant(t *testing.T) {
	req := testRequest("a@x.com", "b@x.com", "c@x.com")
	suggestion := suggestionAt(time.Hour, []string{"a@x.com", "b@x.com", "c@x.com"}, nil)

	email := &fakeEmailSender{}
	creator := newTestCreator(&fakeInserter{}, email, nil, nil, CreatorOptions{})
	res := creator.CreateMeeting(context.Background(), suggestion, req)

	require.True(t, res.Success)
	require.Len(t, email.sent, 3)
	assert.Equal(t, "a@x.com", email.sent[0].to)
	assert.Equal(t, "Meeting scheduled: Design review", email.sent[0].subject)
	assert.Contains(t, email.sent[0].body, suggestion.Reasoning)
}

func TestCreateMeeting_EmailFailureAbortsRemainingSends(t *testing.T) {
	req := testRequest("a@x.com", "b@x.com", "c@x.com")
	suggestion := suggestionAt(time.Hour, []string{"a@x.com", "b@x.com", "c@x.com"}, nil)

	email := &fakeEmailSender{failOn: "b@x.com"}
	creator := newTestCreator(&fakeInserter{}, email, nil, nil, CreatorOptions{})
	res := creator.CreateMeeting(context.Background(), suggestion, req)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "b@x.com")
	// Only the first send happened; the failure stopped the loop.
	require.Len(t, email.sent, 1)
	assert.Equal(t, "a@x.com", email.sent[0].to)
}

func TestCreateMeeting_BroadcastPredicate(t *testing.T) {
	tests := []struct {
		name          string
		meetingType   MeetingType
		participants  []string
		wantBroadcast bool
	}{
		{"team meeting of two", MeetingTypeTeam, []string{"a@x.com", "b@x.com"}, true},
		{"internal meeting of two", MeetingTypeInternal, []string{"a@x.com", "b@x.com"}, false},
		{"internal meeting of three", MeetingTypeInternal, []string{"a@x.com", "b@x.com", "c@x.com"}, false},
		{"internal meeting of four", MeetingTypeInternal, []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"}, true},
		{"client meeting of five", MeetingTypeClient, []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest(tt.participants...)
			req.MeetingType = tt.meetingType
			suggestion := suggestionAt(time.Hour, tt.participants, nil)

			chat := &fakeChatNotifier{}
			creator := newTestCreator(&fakeInserter{}, nil, chat, nil, CreatorOptions{BroadcastChannel: "#meetings"})
			res := creator.CreateMeeting(context.Background(), suggestion, req)

			require.True(t, res.Success)
			if tt.wantBroadcast {
				require.Len(t, chat.messages, 1)
				assert.Contains(t, chat.messages[0], "#meetings")
				assert.Contains(t, chat.messages[0], req.Title)
			} else {
				assert.Empty(t, chat.messages)
			}
		})
	}
}

func TestCreateMeeting_NoBroadcastWithoutChannel(t *testing.T) {
	req := testRequest("a@x.com", "b@x.com")
	req.MeetingType = MeetingTypeTeam
	chat := &fakeChatNotifier{}
	creator := newTestCreator(&fakeInserter{}, nil, chat, nil, CreatorOptions{})
	res := creator.CreateMeeting(context.Background(), suggestionAt(time.Hour, []string{"a@x.com"}, nil), req)
	require.True(t, res.Success)
	assert.Empty(t, chat.messages)
}

func TestCreateMeeting_InsertFailureIsSoft(t *testing.T) {
	req := testRequest("a@x.com")
	events := &fakeInserter{err: fmt.Errorf("quota exceeded")}
	email := &fakeEmailSender{}
	creator := newTestCreator(events, email, nil, nil, CreatorOptions{})
	res := creator.CreateMeeting(context.Background(), suggestionAt(time.Hour, []string{"a@x.com"}, nil), req)

	assert.False(t, res.Success)
	assert.Empty(t, res.MeetingID)
	assert.Contains(t, res.Error, "quota exceeded")
	assert.Empty(t, email.sent, "no notifications after a failed insert")
}

func TestCreateMeeting_DuplicateRequestRejected(t *testing.T) {
	req := testRequest("a@x.com", "b@x.com")
	guard := &fakeGuard{deny: true}
	events := &fakeInserter{}
	creator := newTestCreator(events, nil, nil, guard, CreatorOptions{})
	res := creator.CreateMeeting(context.Background(), suggestionAt(time.Hour, []string{"a@x.com"}, nil), req)

	assert.False(t, res.Success)
	assert.True(t, res.Duplicate)
	assert.Zero(t, events.calls, "duplicate requests must not touch the calendar")
	require.Len(t, guard.keys, 1)
	assert.Equal(t, req.Fingerprint(), guard.keys[0])
}

func TestCreateMeeting_ExplicitIdempotencyKeyWins(t *testing.T) {
	req := testRequest("a@x.com")
	req.IdempotencyKey = "client-supplied-key"
	guard := &fakeGuard{}
	creator := newTestCreator(&fakeInserter{}, nil, nil, guard, CreatorOptions{})
	res := creator.CreateMeeting(context.Background(), suggestionAt(time.Hour, []string{"a@x.com"}, nil), req)

	require.True(t, res.Success)
	require.Len(t, guard.keys, 1)
	assert.Equal(t, "client-supplied-key", guard.keys[0])
}

func TestShouldBroadcast(t *testing.T) {
	team := testRequest("a@x.com")
	team.MeetingType = MeetingTypeTeam
	assert.True(t, shouldBroadcast(team))

	large := testRequest("a@x.com", "b@x.com", "c@x.com", "d@x.com")
	assert.True(t, shouldBroadcast(large))

	small := testRequest("a@x.com", "b@x.com")
	assert.False(t, shouldBroadcast(small))
}
