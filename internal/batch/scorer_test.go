package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/coverageiq/coverageiq/internal/ai"
	"github.com/coverageiq/coverageiq/internal/mockdata"
	"github.com/coverageiq/coverageiq/internal/pace"
)

type stubScorer struct {
	scores map[string]*ai.SkillScore
	errFor map[string]error
	calls  []string
}

func (s *stubScorer) Score(_ context.Context, _ ai.TaskProfile, c ai.CandidateProfile) (*ai.SkillScore, error) {
	s.calls = append(s.calls, c.Name)
	if err := s.errFor[c.Name]; err != nil {
		return nil, err
	}
	if score, ok := s.scores[c.Name]; ok {
		return score, nil
	}
	return &ai.SkillScore{Pct: 75, Reasoning: "solid overlap"}, nil
}

func fixtureTasks() ([]*mockdata.TaskRecord, map[string]*mockdata.MemberRecord) {
	tasks := []*mockdata.TaskRecord{
		{
			ID:       "task-001",
			Title:    "Migrate billing",
			Priority: "high",
			Status:   "at_risk",
			Suggestions: []mockdata.SuggestionStub{
				{MemberID: "mem-1", ContextReason: "led last migration"},
				{MemberID: "mem-2", ContextReason: "owns the service"},
			},
		},
		{
			ID:    "task-002",
			Title: "Docs refresh",
			Suggestions: []mockdata.SuggestionStub{
				{MemberID: "mem-ghost", ContextReason: "unknown"},
			},
		},
	}
	members := map[string]*mockdata.MemberRecord{
		"mem-1": {ID: "mem-1", Name: "Dana", Role: "Backend", Skills: []string{"Go"}},
		"mem-2": {ID: "mem-2", Name: "Alex", Role: "Backend", Skills: []string{"Python"}},
	}
	return tasks, members
}

func TestRunScoresAllPairsAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skill_scores.json")
	tasks, members := fixtureTasks()

	s := NewScorer(&stubScorer{}, pace.NewFixedDelay(0), zap.NewNop(), path)
	summary, err := s.Run(context.Background(), tasks, members)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Scored != 2 || summary.Skipped != 0 {
		t.Errorf("summary = %+v", summary)
	}

	progress, err := LoadProgress(path)
	if err != nil {
		t.Fatalf("LoadProgress: %v", err)
	}
	got := progress["task-001"]["mem-1"]
	if got.SkillMatchPct != 75 || got.ContextReason != "solid overlap" {
		t.Errorf("pair = %+v", got)
	}
	if _, ok := progress["task-002"]["mem-ghost"]; ok {
		t.Error("unknown member should not be scored")
	}
}

func TestRunSkipsAlreadyScoredPairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skill_scores.json")
	tasks, members := fixtureTasks()

	seed := Progress{"task-001": {"mem-1": {SkillMatchPct: 91, ContextReason: "from last run"}}}
	if err := seed.save(path); err != nil {
		t.Fatalf("save seed: %v", err)
	}

	scorer := &stubScorer{}
	s := NewScorer(scorer, pace.NewFixedDelay(0), zap.NewNop(), path)
	summary, err := s.Run(context.Background(), tasks, members)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Scored != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if len(scorer.calls) != 1 || scorer.calls[0] != "Alex" {
		t.Errorf("calls = %v", scorer.calls)
	}

	progress, _ := LoadProgress(path)
	if progress["task-001"]["mem-1"].SkillMatchPct != 91 {
		t.Error("previously scored pair was overwritten")
	}
}

func TestRunAbortsOnScorerErrorButKeepsProgress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skill_scores.json")
	tasks, members := fixtureTasks()

	wantErr := errors.New("retries exhausted")
	s := NewScorer(&stubScorer{errFor: map[string]error{"Alex": wantErr}},
		pace.NewFixedDelay(0), zap.NewNop(), path)

	summary, err := s.Run(context.Background(), tasks, members)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected scorer error, got %v", err)
	}
	if summary.Scored != 1 {
		t.Errorf("summary = %+v", summary)
	}

	progress, loadErr := LoadProgress(path)
	if loadErr != nil {
		t.Fatalf("LoadProgress: %v", loadErr)
	}
	if progress["task-001"]["mem-1"].SkillMatchPct != 75 {
		t.Error("first pair not persisted before failure")
	}
}

func TestLoadProgressMissingFileIsEmpty(t *testing.T) {
	progress, err := LoadProgress(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadProgress: %v", err)
	}
	if progress.Scored() != 0 {
		t.Errorf("scored = %d", progress.Scored())
	}
}

func TestLoadProgressRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skill_scores.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProgress(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDryRunListsPairs(t *testing.T) {
	tasks, members := fixtureTasks()

	var b strings.Builder
	DryRun(&b, tasks, members)

	out := b.String()
	for _, want := range []string{"task-001", "Dana", "[Go]", "mem-ghost", "?"} {
		if !strings.Contains(out, want) {
			t.Errorf("dry-run output missing %q:\n%s", want, out)
		}
	}
}
