package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/atomhq/atom-agent/internal/scheduling"
	"github.com/atomhq/atom-agent/internal/server"
)

func newScheduleCmd() *cobra.Command {
	var (
		account        string
		title          string
		participants   string
		windowStart    string
		windowEnd      string
		duration       int
		meetingType    string
		constraints    string
		organizer      string
		idempotencyKey string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a meeting across multiple participants' calendars",
		Long: `Run one scheduling pass from the command line: resolve the participants,
fetch everyone's availability in the given window, rank candidate times with
the scheduling model, and create the meeting when enough participants are
free.

Service configuration is read from the environment: OPENAI_API_KEY (required),
OPENAI_MODEL, SLACK_BOT_TOKEN, SLACK_CHANNEL, REDIS_ADDR, DATABASE_URL and
HUBSPOT_ACCESS_TOKEN.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := time.Parse(time.RFC3339, windowStart)
			if err != nil {
				return fmt.Errorf("invalid --window-start: %w", err)
			}
			we, err := time.Parse(time.RFC3339, windowEnd)
			if err != nil {
				return fmt.Errorf("invalid --window-end: %w", err)
			}

			refs := parseCommaSeparatedList(participants)
			if len(refs) == 0 {
				return fmt.Errorf("--participants is required")
			}

			mt, err := scheduling.ParseMeetingType(meetingType)
			if err != nil {
				return fmt.Errorf("invalid --type: %w", err)
			}

			if organizer == "" {
				organizer = account
			}

			req := &scheduling.MeetingRequest{
				OrganizerID:       organizer,
				Title:             title,
				ParticipantEmails: refs,
				WindowStart:       ws,
				WindowEnd:         we,
				Constraints:       parseCommaSeparatedList(constraints),
				MeetingType:       mt,
				DurationMinutes:   duration,
				IdempotencyKey:    idempotencyKey,
			}

			cfg := server.Config{}
			loadServerConfigFromEnv(&cfg)

			ctx := context.Background()
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			sc, err := server.NewServerContext(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create server context: %w", err)
			}
			defer func() {
				_ = sc.Shutdown()
			}()

			scheduler, err := sc.SchedulerForAccount(account)
			if err != nil {
				return err
			}

			outcome, err := scheduler.ScheduleMultiUserMeeting(ctx, req)
			if err != nil {
				return fmt.Errorf("scheduling failed: %w", err)
			}

			payload, err := json.MarshalIndent(outcome, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode outcome: %w", err)
			}
			fmt.Println(string(payload))
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Google account name to use (default: 'default')")
	cmd.Flags().StringVar(&title, "title", "", "Meeting title (required)")
	cmd.Flags().StringVar(&participants, "participants", "", "Comma-separated participant references: emails or names (required)")
	cmd.Flags().StringVar(&windowStart, "window-start", "", "Start of the scheduling window, RFC3339 (required)")
	cmd.Flags().StringVar(&windowEnd, "window-end", "", "End of the scheduling window, RFC3339 (required)")
	cmd.Flags().IntVar(&duration, "duration", 30, "Meeting duration in minutes")
	cmd.Flags().StringVar(&meetingType, "type", "internal", "Meeting type: internal, client, external, or team")
	cmd.Flags().StringVar(&constraints, "constraints", "", "Comma-separated soft preferences, e.g. 'prefer mornings'")
	cmd.Flags().StringVar(&organizer, "organizer", "", "Organizer identifier (default: the account name)")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Optional key that guards against creating the same meeting twice")

	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("participants")
	_ = cmd.MarkFlagRequired("window-start")
	_ = cmd.MarkFlagRequired("window-end")

	return cmd
}
