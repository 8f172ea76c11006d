package timeoff

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coverageiq/coverageiq/internal/ai"
	"github.com/coverageiq/coverageiq/internal/pace"
	"github.com/coverageiq/coverageiq/internal/slack"
)

// Entry is a single detected time-off announcement. Entries are immutable
// once assembled.
type Entry struct {
	SentAt           string `json:"sent_at"`
	Sender           string `json:"sender"`
	Message          string `json:"message"`
	PersonUsername   string `json:"person_username"`
	StartDate        string `json:"start_date,omitempty"`
	EndDate          string `json:"end_date,omitempty"`
	Reason           string `json:"reason,omitempty"`
	CoverageUsername string `json:"coverage_username,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

// Source yields the filtered, name-resolved message window.
type Source interface {
	RecentHumanMessages(channelID string, window time.Duration, limit int) ([]*slack.Message, error)
}

// Extractor runs the channel window through the classifier, one message at a
// time, pacing calls to stay under the provider's rate quota.
type Extractor struct {
	source     Source
	classifier ai.TimeOffClassifier
	pacer      *pace.Pacer
	logger     *zap.Logger
}

func NewExtractor(source Source, classifier ai.TimeOffClassifier, pacer *pace.Pacer, logger *zap.Logger) *Extractor {
	return &Extractor{
		source:     source,
		classifier: classifier,
		pacer:      pacer,
		logger:     logger,
	}
}

// Extract returns all detected time-off entries in send order. An empty list
// is a valid outcome. Source failures and classifier failures (including
// exhausted rate-limit retries) propagate to the caller.
func (e *Extractor) Extract(ctx context.Context, channelID string, window time.Duration, limit int) ([]*Entry, error) {
	messages, err := e.source.RecentHumanMessages(channelID, window, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0)

	for i, msg := range messages {
		sentAt := msg.SentAt()

		details, err := e.classifier.Classify(ctx, ai.MessageContext{
			Sender: msg.SenderName,
			SentAt: sentAt,
			Text:   msg.ResolvedText,
		})
		if err != nil {
			return nil, err
		}

		if details != nil {
			entry := newEntry(msg, sentAt, details)
			entries = append(entries, entry)
			e.logger.Info("time-off detected",
				zap.String("person", entry.PersonUsername),
				zap.String("start_date", entry.StartDate),
			)
		}

		// Pace between classifier calls, not after the last one.
		if i < len(messages)-1 {
			if err := e.pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}
	}

	return entries, nil
}

func newEntry(msg *slack.Message, sentAt time.Time, details *ai.TimeOffDetails) *Entry {
	person := details.PersonUsername
	if person == "" {
		person = msg.SenderName
	}

	return &Entry{
		SentAt:           sentAt.Format(time.RFC3339),
		Sender:           msg.SenderName,
		Message:          msg.Text,
		PersonUsername:   strings.TrimPrefix(person, "@"),
		StartDate:        details.StartDate,
		EndDate:          details.EndDate,
		Reason:           details.Reason,
		CoverageUsername: strings.TrimPrefix(details.CoverageUsername, "@"),
		Notes:            details.Notes,
	}
}
