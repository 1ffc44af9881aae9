package cmd

import (
	"io"
	"strings"
	"testing"
)

func TestScheduleCmd_RejectsUnknownMeetingType(t *testing.T) {
	cmd := newScheduleCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{
		"--title", "Design review",
		"--participants", "a@example.com",
		"--window-start", "2026-09-07T09:00:00Z",
		"--window-end", "2026-09-07T18:00:00Z",
		"--type", "standup",
	})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected an error for an unknown meeting type")
	}
	if !strings.Contains(err.Error(), "invalid meeting type") {
		t.Errorf("error = %q, want it to name the invalid meeting type", err)
	}
}
