package cmd

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/atomhq/atom-agent/internal/server"
)

// loadServerConfigFromEnv fills in server configuration from environment
// variables for anything not already set via flags.
func loadServerConfigFromEnv(cfg *server.Config) {
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = os.Getenv("OPENAI_MODEL")
	}
	if cfg.OpenAIBaseURL == "" {
		cfg.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if cfg.SlackToken == "" {
		cfg.SlackToken = os.Getenv("SLACK_BOT_TOKEN")
	}
	if cfg.SlackChannel == "" {
		cfg.SlackChannel = os.Getenv("SLACK_CHANNEL")
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	}
	if cfg.RedisPassword == "" {
		cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	}
	if cfg.RedisDB == 0 {
		if envDB := os.Getenv("REDIS_DB"); envDB != "" {
			if db, err := strconv.Atoi(envDB); err == nil {
				cfg.RedisDB = db
			} else {
				slog.Warn("invalid REDIS_DB value, using default", "value", envDB)
			}
		}
	}
	if cfg.PostgresDSN == "" {
		cfg.PostgresDSN = os.Getenv("DATABASE_URL")
	}
	if cfg.HubSpotAPIKey == "" {
		cfg.HubSpotAPIKey = os.Getenv("HUBSPOT_ACCESS_TOKEN")
	}
	if cfg.ApprovalRatio == 0 {
		if envRatio := os.Getenv("APPROVAL_RATIO"); envRatio != "" {
			if ratio, err := strconv.ParseFloat(envRatio, 64); err == nil {
				cfg.ApprovalRatio = ratio
			} else {
				slog.Warn("invalid APPROVAL_RATIO value, using default", "value", envRatio)
			}
		}
	}
	if cfg.InviteConflictLimit == 0 {
		if envLimit := os.Getenv("INVITE_CONFLICT_LIMIT"); envLimit != "" {
			if limit, err := strconv.Atoi(envLimit); err == nil {
				cfg.InviteConflictLimit = limit
			} else {
				slog.Warn("invalid INVITE_CONFLICT_LIMIT value, using default", "value", envLimit)
			}
		}
	}
}

// parseCommaSeparatedList splits a comma-separated string into trimmed,
// non-empty items. Returns nil for an empty input.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
