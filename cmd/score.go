package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/coverageiq/coverageiq/internal/batch"
	"github.com/coverageiq/coverageiq/internal/mockdata"
	"github.com/coverageiq/coverageiq/internal/pace"
)

const (
	promptYes = "Yes"
	promptNo  = "No"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Batch-score the fixture's task/member suggestion pairs",
	Run: func(cmd *cobra.Command, _ []string) {
		runScore(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().Bool("dry-run", false, "parse the fixture and list pairs without calling the API")
	scoreCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before scoring")
	scoreCmd.Flags().String("fixture-file", "", "path to the frontend fixture (default mock-data.ts)")
	scoreCmd.Flags().String("output-file", "", "path to the progress file (default skill_scores.json)")

	viper.BindPFlag("batch.fixture-file", scoreCmd.Flags().Lookup("fixture-file"))
	viper.BindPFlag("batch.output-file", scoreCmd.Flags().Lookup("output-file"))
}

func runScore(cmd *cobra.Command) {
	l := newLogger()

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	fixturePath := config.Batch.FixtureFile
	outputPath := config.Batch.OutputFile

	source, err := os.ReadFile(fixturePath)
	if err != nil {
		l.Fatal("reading fixture", zap.String("path", fixturePath), zap.Error(err))
	}

	tasks, members, err := mockdata.Parse(string(source))
	if err != nil {
		l.Fatal("parsing fixture", zap.String("path", fixturePath), zap.Error(err))
	}

	totalPairs := 0
	for _, task := range tasks {
		totalPairs += len(task.Suggestions)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Skill Match Scorer")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "Source  : %s\n", fixturePath)
	fmt.Fprintf(out, "Output  : %s\n", outputPath)
	fmt.Fprintf(out, "Parsed  : %d tasks, %d members, %d pairs\n\n", len(tasks), len(members), totalPairs)

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		batch.DryRun(out, tasks, members)
		return
	}

	apiKey, err := loadGeminiKey(config)
	if err != nil {
		l.Fatal("loading gemini api key",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY or the 'gemini.api-key' key in the configuration file"),
		)
	}

	if autoApprove, _ := cmd.Flags().GetBool("auto-approve"); !autoApprove {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Score %d pair(s) via Gemini?", totalPairs),
			Items: []string{promptYes, promptNo},
		}
		_, answer, err := prompt.Run()
		if err != nil {
			l.Fatal("exiting", zap.Error(err))
		}
		if answer != promptYes {
			l.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	scorer, err := newScorer(cmd, config, apiKey, l)
	if err != nil {
		l.Fatal("building scorer", zap.Error(err))
	}

	driver := batch.NewScorer(scorer, pace.NewFixedDelay(interCallDelay), l, outputPath)
	summary, err := driver.Run(cmd.Context(), tasks, members)
	if err != nil {
		l.Fatal("batch scoring failed", zap.Error(err),
			zap.Int("scored_before_failure", summary.Scored))
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 60))
	fmt.Fprintf(out, "Done.  Scored: %d  Skipped (already done): %d\n", summary.Scored, summary.Skipped)
	fmt.Fprintf(out, "Results written to %s\n", outputPath)
}
