package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coverageiq/coverageiq/internal/logger"
	"github.com/coverageiq/coverageiq/internal/pace"
	"github.com/coverageiq/coverageiq/internal/timeoff"
)

var timeoffCmd = &cobra.Command{
	Use:   "timeoff",
	Short: "Print time-off entries detected in the channel window",
	Run: func(cmd *cobra.Command, _ []string) {
		runTimeoff(cmd)
	},
}

func init() {
	rootCmd.AddCommand(timeoffCmd)

	timeoffCmd.Flags().Int("hours", 24, "how far back to look, in hours")
	timeoffCmd.Flags().Int("limit", 100, "maximum number of messages to fetch")
}

func runTimeoff(cmd *cobra.Command) {
	l := newLogger()

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	hours, _ := cmd.Flags().GetInt("hours")
	limit, _ := cmd.Flags().GetInt("limit")

	slackClient, channel, err := newSlackClient(cmd, config, l)
	if err != nil {
		l.Fatal("loading slack bot token",
			zap.Error(err),
			zap.String("hint", "set SLACK_BOT_TOKEN or the 'slack.bot-token' key in the configuration file"),
		)
	}

	info, err := slackClient.GetChannelInfo(channel)
	if err != nil {
		l.Fatal("cannot access slack channel", zap.String("channel_id", channel), zap.Error(err))
	}

	apiKey, err := loadGeminiKey(config)
	if err != nil {
		l.Fatal("loading gemini api key",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY or the 'gemini.api-key' key in the configuration file"),
		)
	}

	classifier, err := newClassifier(cmd, config, apiKey, l)
	if err != nil {
		l.Fatal("building classifier", zap.Error(err))
	}

	extractor := timeoff.NewExtractor(slackClient, classifier, pace.NewFixedDelay(interCallDelay), l)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Slack Time-Off Parser")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "Channel     : #%s (%s)\n", info.Name, channel)
	fmt.Fprintf(out, "Looking back: %d hours  |  max messages: %d\n", hours, limit)

	entries, err := extractor.Extract(cmd.Context(), channel, time.Duration(hours)*time.Hour, limit)
	if err != nil {
		l.Fatal("extracting time-off entries", zap.Error(err))
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "\nNo time-off messages found.")
	}
	for _, entry := range entries {
		printEntry(cmd, entry)
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 60))
	fmt.Fprintf(out, "Done. Found %d time-off message(s).\n", len(entries))
}

func printEntry(cmd *cobra.Command, entry *timeoff.Entry) {
	out := cmd.OutOrStdout()

	message := logger.TruncateForLog(entry.Message, 120)

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("-", 60))
	fmt.Fprintf(out, "  Sent at   : %s\n", entry.SentAt)
	fmt.Fprintf(out, "  From      : @%s\n", entry.Sender)
	fmt.Fprintf(out, "  Message   : %q\n", message)
	fmt.Fprintln(out, "  TIME-OFF DETECTED")
	fmt.Fprintf(out, "  Person    : @%s\n", entry.PersonUsername)
	fmt.Fprintf(out, "  Off from  : %s\n", orFallback(entry.StartDate, "(not specified)"))
	fmt.Fprintf(out, "  Off until : %s\n", orFallback(entry.EndDate, "(not specified)"))
	fmt.Fprintf(out, "  Reason    : %s\n", orFallback(entry.Reason, "(not mentioned)"))

	coverage := "(not mentioned)"
	if entry.CoverageUsername != "" {
		coverage = "@" + entry.CoverageUsername
	}
	fmt.Fprintf(out, "  Coverage  : %s\n", coverage)

	if entry.Notes != "" {
		fmt.Fprintf(out, "  Notes     : %s\n", entry.Notes)
	}
}

func orFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
