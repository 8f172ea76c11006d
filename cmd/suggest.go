package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coverageiq/coverageiq/internal/ai"
	"github.com/coverageiq/coverageiq/internal/pace"
	"github.com/coverageiq/coverageiq/internal/storage"
	"github.com/coverageiq/coverageiq/internal/suggest"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <task-id>",
	Short: "Score a task against eligible team members and persist ranked suggestions",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSuggest(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, taskID string) {
	l := newLogger()

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	store, err := storage.Open(config.DataDir)
	if err != nil {
		l.Fatal("opening storage", zap.Error(err))
	}
	defer store.Close()

	// Without a Gemini key the pipeline falls back to keyword heuristics.
	var scorer ai.SkillScorer
	if apiKey, err := loadGeminiKey(config); err == nil {
		scorer, err = newScorer(cmd, config, apiKey, l)
		if err != nil {
			l.Fatal("building scorer", zap.Error(err))
		}
	} else {
		l.Warn("gemini api key not configured, using heuristic scores")
	}

	pipeline := suggest.NewPipeline(store, scorer, pace.NewFixedDelay(interCallDelay), l)
	if err := pipeline.Run(cmd.Context(), taskID); err != nil {
		l.Fatal("running skill pipeline", zap.Error(err))
	}

	suggestions, err := store.ListSuggestions(taskID)
	if err != nil {
		l.Fatal("listing suggestions", zap.Error(err))
	}

	out := cmd.OutOrStdout()
	for _, s := range suggestions {
		fmt.Fprintf(out, "%d. %s  skill %.0f%%  workload %.1f%%\n   %s\n",
			s.Rank+1, s.MemberID, s.SkillMatchPct, s.WorkloadPct, s.ContextReason)
	}
}
