// Package batch scores the fixture's task/member suggestion pairs offline,
// persisting progress after every pair so an interrupted run can resume
// without repeating calls.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/coverageiq/coverageiq/internal/ai"
	"github.com/coverageiq/coverageiq/internal/mockdata"
	"github.com/coverageiq/coverageiq/internal/pace"
)

// PairScore is one scored task/member pair as stored in the progress file.
type PairScore struct {
	SkillMatchPct int    `json:"skillMatchPct"`
	ContextReason string `json:"contextReason"`
}

// Progress maps task id to member id to score. The zero value of a missing
// task key is simply absent; use ensure before writing.
type Progress map[string]map[string]PairScore

// LoadProgress reads the progress file. A missing file is an empty run, not
// an error: deleting the file is the supported way to rescore from scratch.
func LoadProgress(path string) (Progress, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Progress{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading progress file: %w", err)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing progress file %s: %w", path, err)
	}
	return p, nil
}

func (p Progress) save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing progress file: %w", err)
	}
	return nil
}

// Scored counts the pairs already present.
func (p Progress) Scored() int {
	n := 0
	for _, members := range p {
		n += len(members)
	}
	return n
}

// Summary reports what a batch run did.
type Summary struct {
	Scored  int
	Skipped int
}

// Scorer drives the batch run: one remote call per unscored pair, progress
// written after every call, fixed delay between calls.
type Scorer struct {
	scorer     ai.SkillScorer
	pacer      *pace.Pacer
	logger     *zap.Logger
	outputPath string
}

func NewScorer(scorer ai.SkillScorer, pacer *pace.Pacer, logger *zap.Logger, outputPath string) *Scorer {
	return &Scorer{
		scorer:     scorer,
		pacer:      pacer,
		logger:     logger,
		outputPath: outputPath,
	}
}

// Run scores every suggestion pair not already in the progress file. Unlike
// the online pipeline, a scoring failure aborts the run: everything scored so
// far is already on disk, and rerunning resumes where it stopped.
func (s *Scorer) Run(ctx context.Context, tasks []*mockdata.TaskRecord, members map[string]*mockdata.MemberRecord) (*Summary, error) {
	summary := &Summary{}

	progress, err := LoadProgress(s.outputPath)
	if err != nil {
		return summary, err
	}
	if already := progress.Scored(); already > 0 {
		s.logger.Info("resuming batch run", zap.Int("already_scored", already))
	}

	total := 0
	for _, task := range tasks {
		total += len(task.Suggestions)
	}

	for _, task := range tasks {
		if progress[task.ID] == nil {
			progress[task.ID] = map[string]PairScore{}
		}

		for _, stub := range task.Suggestions {
			if _, done := progress[task.ID][stub.MemberID]; done {
				summary.Skipped++
				continue
			}

			member := members[stub.MemberID]
			if member == nil {
				s.logger.Warn("suggestion references unknown member",
					zap.String("task_id", task.ID),
					zap.String("member_id", stub.MemberID),
				)
				continue
			}

			s.logger.Info("scoring pair",
				zap.String("task_id", task.ID),
				zap.String("member_id", stub.MemberID),
				zap.String("member", member.Name),
			)

			result, err := s.scorer.Score(ctx, ai.TaskProfile{
				Title:    task.Title,
				Priority: task.Priority,
				Status:   task.Status,
			}, ai.CandidateProfile{
				Name:          member.Name,
				Role:          member.Role,
				Skills:        member.Skills,
				ContextReason: stub.ContextReason,
			})
			if err != nil {
				return summary, fmt.Errorf("scoring %s/%s: %w", task.ID, stub.MemberID, err)
			}

			progress[task.ID][stub.MemberID] = PairScore{
				SkillMatchPct: result.Pct,
				ContextReason: result.Reasoning,
			}
			summary.Scored++

			// Persist before pacing so an interrupt never loses the call
			// that just completed.
			if err := progress.save(s.outputPath); err != nil {
				return summary, err
			}

			if remaining := total - summary.Scored - summary.Skipped; remaining > 0 {
				if err := s.pacer.Wait(ctx); err != nil {
					return summary, err
				}
			}
		}
	}

	return summary, nil
}

// DryRun lists every task and its suggestion pairs without touching the
// network or the progress file.
func DryRun(w io.Writer, tasks []*mockdata.TaskRecord, members map[string]*mockdata.MemberRecord) {
	for _, task := range tasks {
		fmt.Fprintf(w, "  %s  %s  %s\n", task.ID, task.Priority, task.Title)
		for _, stub := range task.Suggestions {
			name, skills := "?", ""
			if m := members[stub.MemberID]; m != nil {
				name = m.Name
				skills = strings.Join(m.Skills, ", ")
			}
			fmt.Fprintf(w, "      %s  %s  [%s]\n", stub.MemberID, name, skills)
		}
	}
}
