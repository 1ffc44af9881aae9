package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/atomhq/atom-agent/internal/scheduling"
)

// DefaultSlotGranularity is the slot length used when deriving free slots
// from busy ranges for the ranking prompt.
const DefaultSlotGranularity = 30 * time.Minute

// AvailabilityService assembles per-participant availability from the
// Calendar API: free/busy ranges, conflicting events for context, and the
// participant's timezone.
type AvailabilityService struct {
	client      *Client
	granularity time.Duration
}

// NewAvailabilityService creates an AvailabilityService on top of a Calendar client.
func NewAvailabilityService(client *Client) *AvailabilityService {
	return &AvailabilityService{
		client:      client,
		granularity: DefaultSlotGranularity,
	}
}

// UserAvailability resolves one participant's availability over the window.
// The free/busy query is authoritative; event details and timezone are
// best-effort context that degrades gracefully when the participant's
// calendar is not readable by the organizer.
func (s *AvailabilityService) UserAvailability(ctx context.Context, email string, windowStart, windowEnd time.Time) (*scheduling.ParticipantAvailability, error) {
	infos, err := s.client.QueryFreeBusy(windowStart, windowEnd, []string{email})
	if err != nil {
		return nil, fmt.Errorf("freebusy query for %s: %w", email, err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("freebusy query for %s returned no calendars", email)
	}

	info := infos[0]
	if len(info.Errors) > 0 {
		return nil, fmt.Errorf("calendar %s not available: %s", email, info.Errors[0])
	}

	return s.assemble(email, info, windowStart, windowEnd), nil
}

// UsersAvailability resolves availability for all participants with a single
// batched free/busy query. Per-participant failures do not abort the batch;
// they are returned in the failed map keyed by email.
func (s *AvailabilityService) UsersAvailability(ctx context.Context, emails []string, windowStart, windowEnd time.Time) ([]scheduling.ParticipantAvailability, map[string]error, error) {
	infos, err := s.client.QueryFreeBusy(windowStart, windowEnd, emails)
	if err != nil {
		return nil, nil, fmt.Errorf("freebusy query: %w", err)
	}

	byCalendar := make(map[string]FreeBusyInfo, len(infos))
	for _, info := range infos {
		byCalendar[info.Calendar] = info
	}

	results := make([]scheduling.ParticipantAvailability, len(emails))
	errs := make([]error, len(emails))

	// Event context and timezone need one lookup per participant; do them
	// concurrently since each is an independent API round trip.
	var wg sync.WaitGroup
	for i, email := range emails {
		info, ok := byCalendar[email]
		if !ok {
			errs[i] = fmt.Errorf("no freebusy result for %s", email)
			continue
		}
		if len(info.Errors) > 0 {
			errs[i] = fmt.Errorf("calendar %s not available: %s", email, info.Errors[0])
			continue
		}

		wg.Add(1)
		go func(i int, email string, info FreeBusyInfo) {
			defer wg.Done()
			results[i] = *s.assemble(email, info, windowStart, windowEnd)
		}(i, email, info)
	}
	wg.Wait()

	failed := make(map[string]error)
	var succeeded []scheduling.ParticipantAvailability
	for i, email := range emails {
		if errs[i] != nil {
			failed[email] = errs[i]
			continue
		}
		succeeded = append(succeeded, results[i])
	}

	return succeeded, failed, nil
}

// assemble converts one calendar's free/busy data into the scheduling view.
func (s *AvailabilityService) assemble(email string, info FreeBusyInfo, windowStart, windowEnd time.Time) *scheduling.ParticipantAvailability {
	pa := &scheduling.ParticipantAvailability{
		ParticipantID: email,
		Email:         email,
		DisplayName:   email,
		Timezone:      "UTC",
	}

	loc := time.UTC
	if cal, err := s.client.GetCalendar(email); err == nil && cal.TimeZone != "" {
		pa.Timezone = cal.TimeZone
		if l, err := time.LoadLocation(cal.TimeZone); err == nil {
			loc = l
		}
	}

	for _, slot := range findGaps(info.Busy, s.granularity, windowStart, windowEnd) {
		priority, reason := classifySlot(slot.Start.In(loc))
		pa.AvailableSlots = append(pa.AvailableSlots, scheduling.TimeSlot{
			Start:    slot.Start,
			End:      slot.End,
			Priority: priority,
			Reason:   reason,
		})
	}

	// Event titles are only readable for calendars shared with the
	// organizer; fall back to untitled conflicts from busy ranges.
	events, err := s.client.ListEvents(email, windowStart, windowEnd)
	if err == nil {
		for _, ev := range events {
			if ev.Status == "cancelled" {
				continue
			}
			pa.ConflictingEvents = append(pa.ConflictingEvents, scheduling.CalendarEventSummary{
				Title: ev.Summary,
				Start: ev.Start,
				End:   ev.End,
			})
		}
	} else {
		for _, busy := range info.Busy {
			pa.ConflictingEvents = append(pa.ConflictingEvents, scheduling.CalendarEventSummary{
				Title: "Busy",
				Start: busy.Start,
				End:   busy.End,
			})
		}
	}

	return pa
}

// classifySlot ranks a free slot by local time of day: core business hours
// are preferred, edges are acceptable, everything else is a last resort.
func classifySlot(start time.Time) (scheduling.SlotPriority, string) {
	hour := start.Hour()
	switch {
	case hour >= 9 && hour < 17:
		return scheduling.PriorityHigh, "within business hours"
	case hour == 8 || hour == 17:
		return scheduling.PriorityMedium, "edge of business hours"
	default:
		return scheduling.PriorityLow, "outside business hours"
	}
}
