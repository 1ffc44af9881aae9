package slack

import (
	"context"
	"fmt"
	"strings"

	slackapi "github.com/slack-go/slack"
)

// api is the subset of the Slack web API the client uses.
type api interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Client posts meeting announcements to Slack channels.
type Client struct {
	api api
}

// NewClient creates a client from a bot token (xoxb-...).
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}
	if !strings.HasPrefix(token, "xoxb-") && !strings.HasPrefix(token, "xoxp-") {
		return nil, fmt.Errorf("token must be a Slack bot or user token (xoxb-... or xoxp-...)")
	}
	return &Client{api: slackapi.New(token)}, nil
}

// PostMessage sends a text message to the given channel. The channel may be
// a channel ID or a #name; the Slack API accepts both for bot members.
func (c *Client) PostMessage(ctx context.Context, channel, text string) error {
	if channel == "" {
		return &SlackError{
			Op:  "postMessage",
			Err: fmt.Errorf("channel cannot be empty"),
		}
	}
	if text == "" {
		return &SlackError{
			Op:      "postMessage",
			Channel: channel,
			Err:     fmt.Errorf("message cannot be empty"),
		}
	}

	_, _, err := c.api.PostMessageContext(ctx, channel,
		slackapi.MsgOptionText(text, false),
		slackapi.MsgOptionAsUser(true),
	)
	if err != nil {
		return &SlackError{
			Op:      "postMessage",
			Channel: channel,
			Err:     err,
		}
	}

	return nil
}
