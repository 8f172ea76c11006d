package slack

import "net/url"

type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type channelInfoResponse struct {
	apiResponse
	Channel *Channel `json:"channel"`
}

// GetChannelInfo fetches channel metadata. It doubles as the startup access
// check: an invalid channel or token surfaces here as an *APIError.
func (c *Client) GetChannelInfo(channelID string) (*Channel, error) {
	q := url.Values{}
	q.Set("channel", channelID)

	var resp channelInfoResponse
	if err := c.getJSON("conversations.info", q, &resp); err != nil {
		return nil, err
	}

	if resp.Channel == nil {
		return nil, &APIError{Op: "conversations.info", Code: "channel_missing_in_response"}
	}

	return resp.Channel, nil
}
