package slack

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const contentType = "application/json"

// APIError is the typed "source unavailable" failure: the Slack API answered
// but refused the call (invalid channel, revoked token and so on). It is
// never retried by this client.
type APIError struct {
	Op   string
	Code string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack api error: %s (%s)", e.Code, e.Op)
}

// apiResponse is the envelope every Slack Web API response carries.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type envelope interface {
	ok() bool
	errorCode() string
}

func (r *apiResponse) ok() bool { return r.OK }

func (r *apiResponse) errorCode() string {
	if r.Error == "" {
		return "unknown_error"
	}
	return r.Error
}

// getJSON makes a GET request against the Slack Web API and decodes the
// response into target. A decoded ok=false envelope becomes an *APIError.
func (c *Client) getJSON(op string, q url.Values, target envelope) error {
	req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.APIURL, op), nil)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	c.logger.Debug("make slack request", zap.String("op", op))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: bad status: %s", op, resp.Status)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}

	if !target.ok() {
		return &APIError{Op: op, Code: target.errorCode()}
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("Content-Type", contentType)

	return req
}
