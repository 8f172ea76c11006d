package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/coverageiq/coverageiq/internal/api"
	"github.com/coverageiq/coverageiq/internal/pace"
	"github.com/coverageiq/coverageiq/internal/timeoff"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the time-off extraction API over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address (default :8000)")
	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func serve(cmd *cobra.Command) {
	l := newLogger()

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	l.Info("starting coverageiq", zap.String("version", version))

	slackClient, channel, err := newSlackClient(cmd, config, l)
	if err != nil {
		l.Fatal("loading slack bot token",
			zap.Error(err),
			zap.String("hint", "set SLACK_BOT_TOKEN or the 'slack.bot-token' key in the configuration file"),
		)
	}

	// Fail fast if the bot cannot see the channel.
	info, err := slackClient.GetChannelInfo(channel)
	if err != nil {
		l.Fatal("cannot access slack channel", zap.String("channel_id", channel), zap.Error(err))
	}
	l.Info("watching channel", zap.String("channel", "#"+info.Name), zap.String("channel_id", channel))

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

	router := api.NewRouter(api.Deps{
		Extractor: extractor,
		ChannelID: channel,
		Logger:    l,
	})

	listen := viper.GetString("listen")
	l.Info("listening", zap.String("addr", listen))
	if err := http.ListenAndServe(listen, router); err != nil {
		l.Fatal("http server stopped", zap.Error(err))
	}
}
