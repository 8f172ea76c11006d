package slack

import (
	"strconv"
	"strings"
	"time"
)

// Message is a single channel message as returned by conversations.history.
// It is never mutated after fetching; SenderName and ResolvedText are filled
// in once by the adapter.
type Message struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
	User    string `json:"user,omitempty"`
	Text    string `json:"text,omitempty"`
	Ts      string `json:"ts"`

	// SenderName is the resolved display name of User.
	SenderName string `json:"-"`
	// ResolvedText is Text with <@USERID> mention tokens replaced by
	// @display_name.
	ResolvedText string `json:"-"`
}

// IsHuman reports whether the message should reach the classifier: plain
// messages only, no system/bot subtype, non-empty text.
func (m *Message) IsHuman() bool {
	return m.Type == "message" && m.Subtype == "" && strings.TrimSpace(m.Text) != ""
}

// SentAt converts the Slack "seconds.fraction" timestamp into UTC time.
// A malformed timestamp yields the zero time.
func (m *Message) SentAt() time.Time {
	ts, err := strconv.ParseFloat(m.Ts, 64)
	if err != nil {
		return time.Time{}
	}

	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * float64(time.Second))

	return time.Unix(sec, nsec).UTC()
}
