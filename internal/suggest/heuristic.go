package suggest

import (
	"math"
	"strings"

	"github.com/coverageiq/coverageiq/internal/storage"
)

// fullWeekHours is the reference load for the workload percentage.
const fullWeekHours = 40

// Relevance counts how many words from the task title and project name
// appear in the member's role or skills. Every occurrence counts, so a word
// repeated in the title contributes once per repeat. Words of three
// characters or fewer are ignored; matching is case-insensitive substring
// matching.
func Relevance(task *storage.Task, member *storage.TeamMember) int {
	haystack := strings.ToLower(member.Role + " " + strings.Join(member.Skills, " "))

	overlap := 0
	for _, word := range strings.Fields(strings.ToLower(task.Title + " " + task.ProjectName)) {
		if len(word) > 3 && strings.Contains(haystack, word) {
			overlap++
		}
	}
	return overlap
}

// WorkloadPct expresses the member's task load as a percentage of a 40-hour
// week, rounded to one decimal and capped at 100.
func WorkloadPct(taskLoadHours float64) float64 {
	pct := taskLoadHours / fullWeekHours * 100
	pct = math.Round(pct*10) / 10
	return math.Min(100, pct)
}

const heuristicReason = "Gemini not configured — score estimated from skill keyword overlap."

// HeuristicScore is the skill-match fallback used when no remote scorer is
// configured: 40 plus 10 per overlapping word, capped at 90 so a heuristic
// score never beats a confident model score.
func HeuristicScore(overlap int) (float64, string) {
	return math.Min(90, float64(40+10*overlap)), heuristicReason
}
