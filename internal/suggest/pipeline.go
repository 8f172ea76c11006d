package suggest

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/coverageiq/coverageiq/internal/ai"
	"github.com/coverageiq/coverageiq/internal/pace"
	"github.com/coverageiq/coverageiq/internal/storage"
)

// maxCandidates bounds the number of remote scoring calls per run.
const maxCandidates = 6

const scoringErrorReason = "Scoring error — default score applied."

// Pipeline scores a task against eligible team members and persists the
// ranked suggestions. A nil scorer switches every candidate to the keyword
// heuristic.
type Pipeline struct {
	store  *storage.Store
	scorer ai.SkillScorer
	pacer  *pace.Pacer
	logger *zap.Logger
}

func NewPipeline(store *storage.Store, scorer ai.SkillScorer, pacer *pace.Pacer, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		store:  store,
		scorer: scorer,
		pacer:  pacer,
		logger: logger,
	}
}

// Run regenerates all suggestions for the task. Re-running for the same task
// fully replaces the previous set. Runs for different task ids may proceed
// concurrently; runs for the same task id are not coordinated.
func (p *Pipeline) Run(ctx context.Context, taskID string) error {
	log := p.logger.With(zap.String("task_id", taskID))
	log.Info("starting skill pipeline")

	task, err := p.store.GetTask(taskID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn("task not found, aborting")
		return nil
	}
	if err != nil {
		return err
	}

	members, err := p.store.ListMembers()
	if err != nil {
		return err
	}

	candidates := p.shortlist(task, members)
	log.Info("scoring candidates", zap.Int("count", len(candidates)))

	suggestions := make([]*storage.Suggestion, 0, len(candidates))
	for i, member := range candidates {
		pct, reason := p.score(ctx, task, member, log)

		suggestions = append(suggestions, &storage.Suggestion{
			TaskID:        taskID,
			MemberID:      member.ID,
			SkillMatchPct: pct,
			WorkloadPct:   WorkloadPct(member.TaskLoadHours),
			ContextReason: reason,
		})
		log.Info("candidate scored",
			zap.String("member", member.Name),
			zap.Float64("skill_match_pct", pct),
		)

		if p.scorer != nil && i < len(candidates)-1 {
			if err := p.pacer.Wait(ctx); err != nil {
				return err
			}
		}
	}

	rank(suggestions)

	if err := p.store.ReplaceSuggestions(taskID, suggestions); err != nil {
		return err
	}

	log.Info("skill pipeline done", zap.Int("suggestions", len(suggestions)))
	return nil
}

// shortlist drops the current assignee and fully unavailable members, then
// keeps the top candidates by keyword relevance.
func (p *Pipeline) shortlist(task *storage.Task, members []*storage.TeamMember) []*storage.TeamMember {
	candidates := make([]*storage.TeamMember, 0, len(members))
	for _, m := range members {
		if m.ID == task.AssigneeID || m.LeaveStatus == storage.LeaveOutOfOffice {
			continue
		}
		candidates = append(candidates, m)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return Relevance(task, candidates[i]) > Relevance(task, candidates[j])
	})

	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return candidates
}

// score never fails a run: scorer errors degrade to a neutral score so one
// bad call cannot sink the remaining candidates.
func (p *Pipeline) score(ctx context.Context, task *storage.Task, member *storage.TeamMember, log *zap.Logger) (float64, string) {
	if p.scorer == nil {
		return HeuristicScore(Relevance(task, member))
	}

	result, err := p.scorer.Score(ctx, ai.TaskProfile{
		Title:    task.Title,
		Priority: task.Priority,
		Status:   task.Status,
		Project:  task.ProjectName,
	}, ai.CandidateProfile{
		Name:          member.Name,
		Role:          member.Role,
		Skills:        member.Skills,
		LeaveStatus:   member.LeaveStatus,
		CalendarPct:   member.CalendarPct,
		TaskLoadHours: member.TaskLoadHours,
		ManagerNotes:  member.ManagerNotes,
	})
	if err != nil {
		log.Warn("scoring failed", zap.String("member", member.ID), zap.Error(err))
		return 50, scoringErrorReason
	}

	return float64(result.Pct), result.Reasoning
}

// rank sorts by skill match descending, keeping shortlist order on ties, and
// assigns dense zero-based ranks.
func rank(suggestions []*storage.Suggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].SkillMatchPct > suggestions[j].SkillMatchPct
	})
	for i, s := range suggestions {
		s.Rank = i
	}
}
