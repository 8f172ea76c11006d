package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/coverageiq/coverageiq/internal/ai"
	"github.com/coverageiq/coverageiq/internal/logger"
)

const skillSystemPrompt = "You are a technical talent-matching system. " +
	"Given a task description and a team member's profile, score how well " +
	"the member's skills match the task requirements on a scale of 0-100. " +
	"Factors: direct skill overlap with the task domain (most important), " +
	"seniority and role relevance, and any manager notes or prior context " +
	"that indicate the person's strengths or limitations. " +
	"Be precise, consistent, and critical - don't inflate scores. " +
	"Return an integer score and a single concise sentence explaining it."

var skillSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"skill_match_pct": {Type: genai.TypeInteger},
		"reasoning":       {Type: genai.TypeString},
	},
	Required: []string{"skill_match_pct", "reasoning"},
}

// SkillScorer scores one task/candidate pair per call.
type SkillScorer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewSkillScorer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *SkillScorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &SkillScorer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (s *SkillScorer) Score(ctx context.Context, task ai.TaskProfile, candidate ai.CandidateProfile) (*ai.SkillScore, error) {
	prompt := buildScorePrompt(task, candidate)

	s.logger.Debug("gemini score request",
		zap.String("candidate", candidate.Name),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, skillSystemPrompt, prompt, skillSchema)
	if err != nil {
		return nil, err
	}

	doc := extractJSON(raw)
	if !gjson.Valid(doc) {
		return nil, fmt.Errorf("parse score response: not valid json: %s", logger.TruncateForLog(doc, s.maxLogLen))
	}

	pct := gjson.Get(doc, "skill_match_pct")
	if !pct.Exists() {
		return nil, fmt.Errorf("parse score response: skill_match_pct missing")
	}
	if pct.Int() < 0 || pct.Int() > 100 {
		return nil, fmt.Errorf("parse score response: skill_match_pct %d out of range", pct.Int())
	}

	return &ai.SkillScore{
		Pct:       int(pct.Int()),
		Reasoning: strings.TrimSpace(gjson.Get(doc, "reasoning").String()),
	}, nil
}

func buildScorePrompt(task ai.TaskProfile, candidate ai.CandidateProfile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Task title    : %s\n", task.Title)
	fmt.Fprintf(&b, "Task priority : %s\n", task.Priority)
	if task.Status != "" {
		fmt.Fprintf(&b, "Task status   : %s\n", task.Status)
	}
	if task.Project != "" {
		fmt.Fprintf(&b, "Project       : %s\n", task.Project)
	}

	skills := strings.Join(candidate.Skills, ", ")
	if skills == "" {
		skills = "none listed"
	}

	fmt.Fprintf(&b, "\nCandidate     : %s (%s)\n", candidate.Name, candidate.Role)
	fmt.Fprintf(&b, "Skills        : %s\n", skills)

	if candidate.LeaveStatus != "" {
		fmt.Fprintf(&b, "Availability  : %s · calendar %.0f%% · %.0fh task load\n",
			candidate.LeaveStatus, candidate.CalendarPct, candidate.TaskLoadHours)
	}
	if candidate.ManagerNotes != "" {
		fmt.Fprintf(&b, "Manager notes : %s\n", candidate.ManagerNotes)
	}
	if candidate.ContextReason != "" {
		fmt.Fprintf(&b, "\nWhy suggested : %s\n", candidate.ContextReason)
	}

	b.WriteString("\nScore how well this candidate's skills match the task (0-100).")

	return b.String()
}
