package suggest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/coverageiq/coverageiq/internal/ai"
	"github.com/coverageiq/coverageiq/internal/pace"
	"github.com/coverageiq/coverageiq/internal/storage"
)

type stubScorer struct {
	scores map[string]*ai.SkillScore
	errFor map[string]error
	calls  int
}

func (s *stubScorer) Score(_ context.Context, _ ai.TaskProfile, c ai.CandidateProfile) (*ai.SkillScore, error) {
	s.calls++
	if err := s.errFor[c.Name]; err != nil {
		return nil, err
	}
	if score, ok := s.scores[c.Name]; ok {
		return score, nil
	}
	return &ai.SkillScore{Pct: 10, Reasoning: "weak match"}, nil
}

func seedStore(t *testing.T, task *storage.Task, members ...*storage.TeamMember) *storage.Store {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if task != nil {
		if err := store.UpsertTask(task); err != nil {
			t.Fatalf("UpsertTask: %v", err)
		}
	}
	for _, m := range members {
		if err := store.UpsertMember(m); err != nil {
			t.Fatalf("UpsertMember %s: %v", m.ID, err)
		}
	}
	return store
}

func member(id, name string, opts ...func(*storage.TeamMember)) *storage.TeamMember {
	m := &storage.TeamMember{
		ID:          id,
		Name:        name,
		Role:        "Engineer",
		LeaveStatus: "available",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func TestRunExcludesAssigneeAndOOO(t *testing.T) {
	task := &storage.Task{ID: "task-1", Title: "Fix API", AssigneeID: "mem-1"}
	store := seedStore(t, task,
		member("mem-1", "Assignee"),
		member("mem-2", "Away", func(m *storage.TeamMember) { m.LeaveStatus = storage.LeaveOutOfOffice }),
		member("mem-3", "Dana"),
	)

	p := NewPipeline(store, &stubScorer{}, pace.NewFixedDelay(0), zap.NewNop())
	if err := p.Run(context.Background(), "task-1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := store.ListSuggestions("task-1")
	if err != nil {
		t.Fatalf("ListSuggestions: %v", err)
	}
	if len(got) != 1 || got[0].MemberID != "mem-3" {
		t.Fatalf("expected only mem-3, got %+v", got)
	}
}

func TestRunShortlistBoundsScoringCalls(t *testing.T) {
	task := &storage.Task{ID: "task-1", Title: "Fix API"}
	members := make([]*storage.TeamMember, 0, 9)
	for i := 1; i <= 9; i++ {
		members = append(members, member(fmt.Sprintf("mem-%d", i), fmt.Sprintf("m%d", i)))
	}
	store := seedStore(t, task, members...)

	scorer := &stubScorer{}
	p := NewPipeline(store, scorer, pace.NewFixedDelay(0), zap.NewNop())
	if err := p.Run(context.Background(), "task-1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if scorer.calls != maxCandidates {
		t.Errorf("scorer called %d times, want %d", scorer.calls, maxCandidates)
	}
	got, _ := store.ListSuggestions("task-1")
	if len(got) != maxCandidates {
		t.Errorf("persisted %d suggestions, want %d", len(got), maxCandidates)
	}
}

func TestRunRanksByScoreDescending(t *testing.T) {
	task := &storage.Task{ID: "task-1", Title: "Migrate billing to Go"}
	store := seedStore(t, task,
		member("mem-1", "Alex"),
		member("mem-2", "Dana"),
		member("mem-3", "Sam"),
	)

	scorer := &stubScorer{scores: map[string]*ai.SkillScore{
		"Alex": {Pct: 55, Reasoning: "some overlap"},
		"Dana": {Pct: 92, Reasoning: "direct match"},
		"Sam":  {Pct: 70, Reasoning: "adjacent skills"},
	}}

	p := NewPipeline(store, scorer, pace.NewFixedDelay(0), zap.NewNop())
	if err := p.Run(context.Background(), "task-1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := store.ListSuggestions("task-1")
	if err != nil {
		t.Fatalf("ListSuggestions: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(got))
	}

	wantOrder := []string{"mem-2", "mem-3", "mem-1"}
	for i, want := range wantOrder {
		if got[i].MemberID != want {
			t.Errorf("rank %d = %s, want %s", i, got[i].MemberID, want)
		}
		if got[i].Rank != i {
			t.Errorf("rank field = %d, want %d", got[i].Rank, i)
		}
	}
}

func TestRunIsIdempotentPerTask(t *testing.T) {
	task := &storage.Task{ID: "task-1", Title: "Fix API"}
	store := seedStore(t, task, member("mem-1", "Alex"), member("mem-2", "Dana"))

	p := NewPipeline(store, &stubScorer{}, pace.NewFixedDelay(0), zap.NewNop())
	for i := 0; i < 2; i++ {
		if err := p.Run(context.Background(), "task-1"); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}

	got, err := store.ListSuggestions("task-1")
	if err != nil {
		t.Fatalf("ListSuggestions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions after rerun, got %d", len(got))
	}
}

func TestRunMissingTaskIsNoOp(t *testing.T) {
	store := seedStore(t, nil, member("mem-1", "Alex"))

	scorer := &stubScorer{}
	p := NewPipeline(store, scorer, pace.NewFixedDelay(0), zap.NewNop())
	if err := p.Run(context.Background(), "ghost"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if scorer.calls != 0 {
		t.Errorf("scorer called %d times for missing task", scorer.calls)
	}
}

func TestRunScorerErrorFallsBackPerCandidate(t *testing.T) {
	task := &storage.Task{ID: "task-1", Title: "Fix API"}
	store := seedStore(t, task, member("mem-1", "Alex"), member("mem-2", "Dana"))

	scorer := &stubScorer{
		scores: map[string]*ai.SkillScore{"Dana": {Pct: 80, Reasoning: "good fit"}},
		errFor: map[string]error{"Alex": errors.New("retries exhausted")},
	}

	p := NewPipeline(store, scorer, pace.NewFixedDelay(0), zap.NewNop())
	if err := p.Run(context.Background(), "task-1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := store.ListSuggestions("task-1")
	if err != nil {
		t.Fatalf("ListSuggestions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	if got[0].MemberID != "mem-2" || got[0].SkillMatchPct != 80 {
		t.Errorf("rank 0 = %+v", got[0])
	}
	if got[1].SkillMatchPct != 50 || got[1].ContextReason != scoringErrorReason {
		t.Errorf("fallback suggestion = %+v", got[1])
	}
}

func TestRunWithoutScorerUsesHeuristic(t *testing.T) {
	task := &storage.Task{ID: "task-1", Title: "Postgres migration tooling", ProjectName: "Billing"}
	store := seedStore(t, task,
		member("mem-1", "Dana", func(m *storage.TeamMember) {
			m.Skills = []string{"Postgres", "migration scripts"}
			m.TaskLoadHours = 20
		}),
		member("mem-2", "Alex", func(m *storage.TeamMember) {
			m.Role = "Designer"
			m.Skills = []string{"Figma"}
			m.TaskLoadHours = 60
		}),
	)

	p := NewPipeline(store, nil, pace.NewFixedDelay(0), zap.NewNop())
	if err := p.Run(context.Background(), "task-1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := store.ListSuggestions("task-1")
	if err != nil {
		t.Fatalf("ListSuggestions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}

	// "postgres", "migration" and "tooling"? "tooling" is not in the skill
	// text, so overlap is 2: 40 + 2*10 = 60.
	if got[0].MemberID != "mem-1" || got[0].SkillMatchPct != 60 {
		t.Errorf("rank 0 = %+v", got[0])
	}
	if got[0].WorkloadPct != 50.0 {
		t.Errorf("workload for 20h = %v, want 50.0", got[0].WorkloadPct)
	}
	if got[1].SkillMatchPct != 40 {
		t.Errorf("no-overlap score = %v, want 40", got[1].SkillMatchPct)
	}
	if got[1].WorkloadPct != 100.0 {
		t.Errorf("workload for 60h = %v, want capped 100.0", got[1].WorkloadPct)
	}
}

func TestRelevanceIgnoresShortWords(t *testing.T) {
	task := &storage.Task{Title: "Fix the API gateway timeouts", ProjectName: "Core"}
	m := &storage.TeamMember{Role: "API engineer", Skills: []string{"gateway ops", "Go"}}

	// "gateway" and... "timeouts" not present; "the"/"API"/"Fix"/"Core" too
	// short. Overlap = 1.
	if got := Relevance(task, m); got != 1 {
		t.Errorf("relevance = %d, want 1", got)
	}
}

func TestRelevanceCountsRepeatedWords(t *testing.T) {
	task := &storage.Task{Title: "billing sync billing"}
	m := &storage.TeamMember{Role: "billing engineer", Skills: []string{"sync"}}

	// "billing" appears twice in the title and matches both times.
	if got := Relevance(task, m); got != 3 {
		t.Errorf("relevance = %d, want 3", got)
	}
}

func TestWorkloadPctRounding(t *testing.T) {
	cases := []struct {
		hours float64
		want  float64
	}{
		{0, 0},
		{20, 50},
		{33, 82.5},
		{40, 100},
		{60, 100},
	}
	for _, tc := range cases {
		if got := WorkloadPct(tc.hours); got != tc.want {
			t.Errorf("WorkloadPct(%v) = %v, want %v", tc.hours, got, tc.want)
		}
	}
}
