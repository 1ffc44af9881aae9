package scheduling

import (
	"fmt"
	"strings"
)

// AvailabilityFetchError indicates that no participant's availability could
// be retrieved, leaving nothing to rank.
type AvailabilityFetchError struct {
	Participants []string
	Err          error
}

func (e *AvailabilityFetchError) Error() string {
	return fmt.Sprintf("availability lookup failed for all participants (%s): %v",
		strings.Join(e.Participants, ", "), e.Err)
}

func (e *AvailabilityFetchError) Unwrap() error {
	return e.Err
}

// RankingError indicates that the ranking model call failed or returned a
// response that could not be parsed.
type RankingError struct {
	Op  string
	Err error
}

func (e *RankingError) Error() string {
	return fmt.Sprintf("ranking %s failed: %v", e.Op, e.Err)
}

func (e *RankingError) Unwrap() error {
	return e.Err
}

// CreationError indicates a failure while materializing an approved
// suggestion: event insertion, notification, or broadcast.
type CreationError struct {
	Op  string
	Err error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("meeting creation %s failed: %v", e.Op, e.Err)
}

func (e *CreationError) Unwrap() error {
	return e.Err
}
