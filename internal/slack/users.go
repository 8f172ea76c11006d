package slack

import (
	"fmt"
	"net/url"
	"regexp"
	"sync"
)

var mentionPattern = regexp.MustCompile(`<@([A-Z0-9]+)>`)

// NameCache maps user ids to resolved display names. It lives as long as the
// owning client; entries are never invalidated within that lifetime.
type NameCache struct {
	mu    sync.Mutex
	names map[string]string
}

func NewNameCache() *NameCache {
	return &NameCache{names: make(map[string]string)}
}

func (n *NameCache) get(id string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	name, ok := n.names[id]
	return name, ok
}

func (n *NameCache) put(id, name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.names[id] = name
}

// Len reports how many ids have been resolved so far.
func (n *NameCache) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.names)
}

type userInfoResponse struct {
	apiResponse
	User *struct {
		Name    string `json:"name"`
		Profile struct {
			DisplayName string `json:"display_name"`
			RealName    string `json:"real_name"`
		} `json:"profile"`
	} `json:"user"`
}

// ResolveUser returns the best display name for a user id, caching the
// result. A failed lookup falls back to the raw id; the fallback is cached
// too so a broken id costs one API call per client lifetime.
func (c *Client) ResolveUser(userID string) string {
	if name, ok := c.names.get(userID); ok {
		return name
	}

	name := c.lookupUser(userID)
	c.names.put(userID, name)

	return name
}

func (c *Client) lookupUser(userID string) string {
	q := url.Values{}
	q.Set("user", userID)

	var resp userInfoResponse
	if err := c.getJSON("users.info", q, &resp); err != nil || resp.User == nil {
		return userID
	}

	switch {
	case resp.User.Profile.DisplayName != "":
		return resp.User.Profile.DisplayName
	case resp.User.Profile.RealName != "":
		return resp.User.Profile.RealName
	case resp.User.Name != "":
		return resp.User.Name
	}

	return userID
}

// ResolveMentions replaces <@USERID> tokens with @display_name.
func (c *Client) ResolveMentions(text string) string {
	return mentionPattern.ReplaceAllStringFunc(text, func(token string) string {
		id := mentionPattern.FindStringSubmatch(token)[1]
		return fmt.Sprintf("@%s", c.ResolveUser(id))
	})
}
