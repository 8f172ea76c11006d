package slack

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

type historyResponse struct {
	apiResponse
	Messages []*Message `json:"messages"`
}

// GetHistory fetches channel messages newer than oldest, capped at limit.
// Slack returns newest-first; the result is reversed to oldest-first so
// callers process messages in send order.
func (c *Client) GetHistory(channelID string, oldest time.Time, limit int) ([]*Message, error) {
	q := url.Values{}
	q.Set("channel", channelID)
	q.Set("oldest", fmt.Sprintf("%d.000000", oldest.Unix()))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp historyResponse
	if err := c.getJSON("conversations.history", q, &resp); err != nil {
		return nil, err
	}

	messages := resp.Messages
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
