package storage

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// LeaveOutOfOffice marks a member as fully unavailable; such members are
// never candidates.
const LeaveOutOfOffice = "ooo"

// Task is owned by the external task store; read-only to the pipeline.
type Task struct {
	ID          string
	Title       string
	Priority    string
	Status      string
	ProjectName string
	AssigneeID  string
}

// TeamMember is read-only to the pipeline. Skills keep their source order.
type TeamMember struct {
	ID            string
	Name          string
	Role          string
	Skills        []string
	LeaveStatus   string
	CalendarPct   float64
	TaskLoadHours float64
	ManagerNotes  string
}

// Suggestion is one ranked task-to-member match. All suggestions for a task
// are wiped and regenerated on each pipeline run; rank 0 is the best match.
type Suggestion struct {
	ID            string
	TaskID        string
	MemberID      string
	SkillMatchPct float64
	WorkloadPct   float64
	ContextReason string
	Rank          int
}
