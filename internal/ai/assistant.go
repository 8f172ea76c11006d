package ai

import (
	"context"
	"time"
)

// MessageContext carries everything the classifier needs about one chat
// message: the literal send timestamp lets the model resolve relative dates
// ("next Monday") to full dates with the correct year.
type MessageContext struct {
	Sender string
	SentAt time.Time
	Text   string
}

// TimeOffDetails is the positive classification outcome. A nil
// *TimeOffDetails from Classify means the message is not a time-off request;
// there is no half-filled negative shape.
type TimeOffDetails struct {
	PersonUsername   string
	StartDate        string
	EndDate          string
	Reason           string
	CoverageUsername string
	Notes            string
}

type TimeOffClassifier interface {
	Classify(ctx context.Context, msg MessageContext) (*TimeOffDetails, error)
}

// TaskProfile is the task side of a scoring prompt.
type TaskProfile struct {
	Title    string
	Priority string
	Status   string
	Project  string
}

// CandidateProfile is the member side of a scoring prompt. ContextReason is
// only set by the batch scorer, which records why the member was suggested.
type CandidateProfile struct {
	Name          string
	Role          string
	Skills        []string
	LeaveStatus   string
	CalendarPct   float64
	TaskLoadHours float64
	ManagerNotes  string
	ContextReason string
}

// SkillScore is the structured verdict for one task/candidate pair.
type SkillScore struct {
	Pct       int
	Reasoning string
}

type SkillScorer interface {
	Score(ctx context.Context, task TaskProfile, candidate CandidateProfile) (*SkillScore, error)
}
