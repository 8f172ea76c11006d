package slack

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const apiURL = "https://slack.com/api"

// Client is a read-only Slack Web API client. It covers the three operations
// the extraction flow needs: channel metadata, channel history and user
// profile lookup. The client owns a name cache whose lifetime matches the
// client instance.
type Client struct {
	// ctx used only for http requests right now
	ctx        context.Context
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	APIURL     string

	names *NameCache
}

func New(ctx context.Context, logger *zap.Logger, token string) *Client {
	return &Client{
		ctx:    ctx,
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
		names:  NewNameCache(),
	}
}

// RecentHumanMessages returns channel messages strictly newer than
// now - window, oldest first, with system/bot-subtype and empty-text messages
// removed. Sender names and <@USERID> mention tokens are resolved through the
// client's name cache.
func (c *Client) RecentHumanMessages(channelID string, window time.Duration, limit int) ([]*Message, error) {
	oldest := time.Now().UTC().Add(-window)

	messages, err := c.GetHistory(channelID, oldest, limit)
	if err != nil {
		return nil, err
	}

	human := make([]*Message, 0, len(messages))
	for _, m := range messages {
		if !m.IsHuman() {
			continue
		}
		m.SenderName = c.senderName(m.User)
		m.ResolvedText = c.ResolveMentions(m.Text)
		human = append(human, m)
	}

	c.logger.Debug("fetched channel window",
		zap.String("channel", channelID),
		zap.Int("messages", len(messages)),
		zap.Int("human", len(human)),
	)

	return human, nil
}

func (c *Client) senderName(userID string) string {
	if userID == "" {
		return "unknown"
	}
	return c.ResolveUser(userID)
}
