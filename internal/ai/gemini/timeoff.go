package gemini

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/coverageiq/coverageiq/internal/ai"
	"github.com/coverageiq/coverageiq/internal/logger"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string, schema *genai.Schema) (string, error)
	Model() string
}

const timeOffSystemPrompt = "You are an HR assistant that reads Slack messages and extracts time-off information. " +
	"You will be given the message text, the Slack username of the sender, and the exact " +
	"date and time the message was sent. " +
	"Use the message sent date to resolve any partial or relative dates to full dates " +
	"including the correct year (e.g. '2/21' sent in 2026 → '2/21/2026', " +
	"'next Monday' sent on 2026-02-21 → '2/23/2026'). " +
	"Determine if the message is a time-off request or announcement. " +
	"If it is, extract: who is taking time off (use the sender's username unless the message " +
	"clearly states someone else), the full start and end dates (with year), the reason if " +
	"mentioned, and who will cover their work. " +
	"For coverage: if the person was @mentioned, use their resolved display name; " +
	"if they were named in plain text, use that name as written. " +
	"Only set coverage_username to null if no coverage person is mentioned at all. " +
	"If the message is not about time off (e.g. general chat, a question, a system event), " +
	"set is_time_off_request to false and leave all other fields null."

var timeOffSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"is_time_off_request": {Type: genai.TypeBoolean},
		"person_username":     {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"start_date":          {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"end_date":            {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"reason":              {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"coverage_username":   {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"notes":               {Type: genai.TypeString, Nullable: genai.Ptr(true)},
	},
	Required: []string{"is_time_off_request"},
}

const defaultMaxLogLength = 200

// TimeOffClassifier runs single messages through Gemini and decodes the
// structured verdict.
type TimeOffClassifier struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewTimeOffClassifier(generator contentGenerator, logger *zap.Logger, maxLogLength int) *TimeOffClassifier {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &TimeOffClassifier{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Classify returns the extracted time-off details, or nil when the message
// is not a time-off request.
func (c *TimeOffClassifier) Classify(ctx context.Context, msg ai.MessageContext) (*ai.TimeOffDetails, error) {
	prompt := fmt.Sprintf(
		"Sender Slack username : @%s\n"+
			"Message sent at       : %s (year: %d)\n\n"+
			"Message:\n%s",
		msg.Sender,
		msg.SentAt.Format("2006-01-02 15:04:05 UTC"),
		msg.SentAt.Year(),
		msg.Text,
	)

	c.logger.Debug("gemini classify request",
		zap.String("sender", msg.Sender),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, c.maxLogLen)),
	)

	raw, err := c.generator.GenerateContent(ctx, timeOffSystemPrompt, prompt, timeOffSchema)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("gemini classify response",
		zap.String("response_preview", logger.TruncateForLog(raw, c.maxLogLen)),
	)

	doc := extractJSON(raw)
	if !gjson.Valid(doc) {
		return nil, fmt.Errorf("parse classifier response: not valid json: %s", logger.TruncateForLog(doc, c.maxLogLen))
	}

	verdict := gjson.Get(doc, "is_time_off_request")
	if !verdict.Exists() {
		return nil, fmt.Errorf("parse classifier response: is_time_off_request missing")
	}
	if !verdict.Bool() {
		return nil, nil
	}

	return &ai.TimeOffDetails{
		PersonUsername:   gjson.Get(doc, "person_username").String(),
		StartDate:        gjson.Get(doc, "start_date").String(),
		EndDate:          gjson.Get(doc, "end_date").String(),
		Reason:           gjson.Get(doc, "reason").String(),
		CoverageUsername: gjson.Get(doc, "coverage_username").String(),
		Notes:            gjson.Get(doc, "notes").String(),
	}, nil
}
