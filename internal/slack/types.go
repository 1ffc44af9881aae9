package slack

import "fmt"

// SlackError represents an error that occurred during Slack operations
type SlackError struct {
	// Op is the operation that failed (e.g., "postMessage", "resolveChannel")
	Op string

	// Channel is the channel associated with the operation
	Channel string

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *SlackError) Error() string {
	if e.Channel != "" {
		return fmt.Sprintf("slack %s (channel: %s): %v", e.Op, e.Channel, e.Err)
	}
	return fmt.Sprintf("slack %s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *SlackError) Unwrap() error {
	return e.Err
}
