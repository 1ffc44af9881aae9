package logging

import (
	"errors"
	"log/slog"
	"testing"
)

func TestWithOperation(t *testing.T) {
	logger := slog.Default()
	result := WithOperation(logger, OpMultiUserSchedule)
	if result == nil {
		t.Error("WithOperation returned nil")
	}
}

func TestWithService(t *testing.T) {
	logger := slog.Default()
	result := WithService(logger, "calendar")
	if result == nil {
		t.Error("WithService returned nil")
	}
}

func TestWithAccount(t *testing.T) {
	logger := slog.Default()
	result := WithAccount(logger, "work")
	if result == nil {
		t.Error("WithAccount returned nil")
	}
}

func TestOperationAttr(t *testing.T) {
	attr := Operation(OpCreateMeetingError)
	if attr.Key != KeyOperation {
		t.Errorf("expected key %q, got %q", KeyOperation, attr.Key)
	}
	if attr.Value.String() != OpCreateMeetingError {
		t.Errorf("expected value %q, got %q", OpCreateMeetingError, attr.Value.String())
	}
}

func TestStatusAttr(t *testing.T) {
	attr := Status(StatusSuccess)
	if attr.Key != KeyStatus {
		t.Errorf("expected key %q, got %q", KeyStatus, attr.Key)
	}
}

func TestMeetingIDAttr(t *testing.T) {
	attr := MeetingID("evt-123")
	if attr.Key != KeyMeetingID {
		t.Errorf("expected key %q, got %q", KeyMeetingID, attr.Key)
	}
	if attr.Value.String() != "evt-123" {
		t.Errorf("expected value evt-123, got %q", attr.Value.String())
	}
}

func TestParticipantCountAttr(t *testing.T) {
	attr := ParticipantCount(4)
	if attr.Key != KeyParticipants {
		t.Errorf("expected key %q, got %q", KeyParticipants, attr.Key)
	}
	if attr.Value.Int64() != 4 {
		t.Errorf("expected value 4, got %d", attr.Value.Int64())
	}
}

func TestErr_WithError(t *testing.T) {
	err := errors.New("test error")
	attr := Err(err)
	if attr.Key != KeyError {
		t.Errorf("expected key %q, got %q", KeyError, attr.Key)
	}
	if attr.Value.String() != "test error" {
		t.Errorf("expected value 'test error', got %q", attr.Value.String())
	}
}

func TestErr_WithNil(t *testing.T) {
	attr := Err(nil)
	// A nil error should produce an empty group that slog omits
	if attr.Key != "" {
		t.Errorf("expected empty key for nil error, got %q", attr.Key)
	}
}

func TestAnonymizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		empty bool
	}{
		{name: "normal email", email: "jane@example.com"},
		{name: "empty email", email: "", empty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnonymizeEmail(tt.email)
			if tt.empty {
				if result != "" {
					t.Errorf("expected empty result, got %q", result)
				}
				return
			}
			if result == tt.email {
				t.Error("anonymized email should not equal original")
			}
			if len(result) == 0 {
				t.Error("anonymized email should not be empty")
			}
		})
	}
}

func TestAnonymizeEmail_Deterministic(t *testing.T) {
	a := AnonymizeEmail("jane@example.com")
	b := AnonymizeEmail("jane@example.com")
	if a != b {
		t.Error("AnonymizeEmail should be deterministic")
	}

	c := AnonymizeEmail("john@example.com")
	if a == c {
		t.Error("different emails should produce different hashes")
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"jane@example.com", "example.com"},
		{"user@gmail.com", "gmail.com"},
		{"invalid", ""},
		{"", ""},
		{"a@b@c", ""},
	}

	for _, tt := range tests {
		result := ExtractDomain(tt.email)
		if result != tt.expected {
			t.Errorf("ExtractDomain(%q) = %q, expected %q", tt.email, result, tt.expected)
		}
	}
}
