package cmd

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/coverageiq/coverageiq/internal/ai"
	"github.com/coverageiq/coverageiq/internal/ai/gemini"
	"github.com/coverageiq/coverageiq/internal/logger"
	"github.com/coverageiq/coverageiq/internal/secrets"
	"github.com/coverageiq/coverageiq/internal/slack"
)

const (
	app = "coverageiq"

	// Free-tier quota is 15 requests per minute.
	interCallDelay = 4 * time.Second

	timeOffMaxRetries = 4
	scoreMaxRetries   = 3
)

type Config struct {
	Listen  string        `mapstructure:"listen"`
	DataDir string        `mapstructure:"data-dir"`
	Slack   *SlackConfig  `mapstructure:"slack"`
	Gemini  *GeminiConfig `mapstructure:"gemini"`
	Batch   *BatchConfig  `mapstructure:"batch"`
}

type SlackConfig struct {
	BotToken     string `mapstructure:"bot-token"`
	BotTokenFile string `mapstructure:"bot-token-file"`
	ChannelID    string `mapstructure:"channel-id"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type BatchConfig struct {
	FixtureFile string `mapstructure:"fixture-file"`
	OutputFile  string `mapstructure:"output-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "coverageiq extracts time-off announcements from Slack and suggests task coverage candidates",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A .env in the working directory is the common local setup.
	_ = godotenv.Load()

	bindings := map[string]string{
		"slack.bot-token":  "SLACK_BOT_TOKEN",
		"slack.channel-id": "SLACK_CHANNEL_ID",
		"gemini.api-key":   "GEMINI_API_KEY",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
		viper.SetDefault(key, "")
	}

	viper.SetDefault("listen", ":8000")
	viper.SetDefault("data-dir", "data")
	viper.SetDefault("gemini.model", "")
	viper.SetDefault("batch.fixture-file", "mock-data.ts")
	viper.SetDefault("batch.output-file", "skill_scores.json")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is coverageiq.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal(err)
		}
		return
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app + ".yaml")

	// The config file is optional: environment variables alone are enough.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Slack == nil {
		config.Slack = &SlackConfig{}
	}
	if config.Gemini == nil {
		config.Gemini = &GeminiConfig{}
	}
	if config.Batch == nil {
		config.Batch = &BatchConfig{}
	}

	return config, nil
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func loadSlackToken(config *Config) (string, error) {
	return secrets.Load(secrets.Source{
		Name:  "slack bot token",
		Value: config.Slack.BotToken,
		File:  config.Slack.BotTokenFile,
		Env:   "SLACK_BOT_TOKEN",
	})
}

func loadGeminiKey(config *Config) (string, error) {
	return secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: config.Gemini.APIKey,
		File:  config.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
}

func channelID(config *Config) string {
	if config.Slack.ChannelID != "" {
		return config.Slack.ChannelID
	}
	return viper.GetString("slack.channel-id")
}

func newClassifier(cmd *cobra.Command, config *Config, apiKey string, l *zap.Logger) (ai.TimeOffClassifier, error) {
	generator, err := gemini.NewGenerator(cmd.Context(), apiKey, config.Gemini.Model, timeOffMaxRetries, l)
	if err != nil {
		return nil, err
	}
	return gemini.NewTimeOffClassifier(generator, l, config.Gemini.MaxLogLength), nil
}

func newScorer(cmd *cobra.Command, config *Config, apiKey string, l *zap.Logger) (ai.SkillScorer, error) {
	generator, err := gemini.NewGenerator(cmd.Context(), apiKey, config.Gemini.Model, scoreMaxRetries, l)
	if err != nil {
		return nil, err
	}
	return gemini.NewSkillScorer(generator, l, config.Gemini.MaxLogLength), nil
}

func newSlackClient(cmd *cobra.Command, config *Config, l *zap.Logger) (*slack.Client, string, error) {
	token, err := loadSlackToken(config)
	if err != nil {
		return nil, "", err
	}

	channel := channelID(config)
	if channel == "" {
		l.Fatal("slack channel id is required",
			zap.String("hint", "set SLACK_CHANNEL_ID or the 'slack.channel-id' key in the configuration file"),
		)
	}

	return slack.New(cmd.Context(), l, token), channel, nil
}
