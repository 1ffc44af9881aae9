package gmail

import (
	"testing"
)

func TestEncodeRFC2047(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain ASCII unchanged",
			input: "Meeting scheduled: Design review",
			want:  "Meeting scheduled: Design review",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "umlauts are encoded",
			input: "Besprechung für Montag",
			want:  "=?UTF-8?b?QmVzcHJlY2h1bmcgZsO8ciBNb250YWc=?=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeRFC2047(tt.input); got != tt.want {
				t.Errorf("encodeRFC2047(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAppendSignature(t *testing.T) {
	// A client with a cached signature never hits the API.
	c := &Client{signature: "Alice\nExample Corp"}

	plain := c.appendSignature("See you there.", false)
	if want := "See you there.\n\n-- \nAlice\nExample Corp"; plain != want {
		t.Errorf("appendSignature(plain) = %q, want %q", plain, want)
	}

	html := c.appendSignature("<p>See you there.</p>", true)
	if want := "<p>See you there.</p><br><br>-- <br>Alice\nExample Corp"; html != want {
		t.Errorf("appendSignature(html) = %q, want %q", html, want)
	}
}

func TestSendEmailValidation(t *testing.T) {
	c := &Client{}
	tests := []struct {
		name string
		msg  *EmailMessage
		want string
	}{
		{
			name: "missing recipient",
			msg:  &EmailMessage{Subject: "s", Body: "b"},
			want: "at least one recipient is required",
		},
		{
			name: "missing subject",
			msg:  &EmailMessage{To: []string{"a@x.com"}, Body: "b"},
			want: "subject is required",
		},
		{
			name: "missing body",
			msg:  &EmailMessage{To: []string{"a@x.com"}, Subject: "s"},
			want: "body is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.SendEmail(tt.msg)
			if err == nil {
				t.Fatalf("SendEmail() expected error containing %q, got nil", tt.want)
			}
			if err.Error() != tt.want {
				t.Errorf("SendEmail() error = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}
