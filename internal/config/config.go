package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"telegram-reminder-bot/internal/splitter"
)

type Config struct {
	TelegramToken string
	OpenAIKey     string
	OpenAIBaseURL string
	Model         string

	DBPath     string
	HealthAddr string
	DefaultTZ  string
	Separator  string

	LogLevel  string
	LogPretty bool

	RewriteTimeout   time.Duration
	TransportTimeout time.Duration
	SweepInterval    time.Duration
}

const (
	DBName         = "bot.db"
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultHealth  = ":8080"

	defaultRewriteTimeout   = 30 * time.Second
	defaultTransportTimeout = 15 * time.Second
	defaultSweepInterval    = time.Minute
)

// secretsDir is where Docker mounts secrets; tests point it elsewhere.
var secretsDir = "/run/secrets"

// secret reads the Docker secret file first, then the environment.
func secret(name, env string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(cli.File(filepath.Join(secretsDir, name)), cli.EnvVar(env))
}

// Flags binds every setting in cfg to a flag and its environment variable.
func Flags(cfg *Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "telegram-token",
			Usage:       "Bot API token",
			Sources:     secret("telegram_bot_token", "TELEGRAM_BOT_TOKEN"),
			Config:      cli.StringConfig{TrimSpace: true},
			Destination: &cfg.TelegramToken,
		},
		&cli.StringFlag{
			Name:        "openai-key",
			Usage:       "API key for the chat completions endpoint",
			Sources:     secret("openai_api_key", "OPENAI_API_KEY"),
			Config:      cli.StringConfig{TrimSpace: true},
			Destination: &cfg.OpenAIKey,
		},
		&cli.StringFlag{
			Name:        "openai-base-url",
			Usage:       "OpenAI-compatible API base URL",
			Sources:     cli.EnvVars("OPENAI_BASE_URL"),
			Value:       DefaultBaseURL,
			Destination: &cfg.OpenAIBaseURL,
		},
		&cli.StringFlag{
			Name:        "model",
			Usage:       "chat completions model used for rewriting",
			Sources:     cli.EnvVars("OPENAI_MODEL"),
			Value:       DefaultModel,
			Destination: &cfg.Model,
		},
		&cli.StringFlag{
			Name:        "db",
			Usage:       "path to the sqlite file holding chat settings",
			Sources:     cli.EnvVars("REMINDER_DB_PATH"),
			Value:       DBName,
			Destination: &cfg.DBPath,
		},
		&cli.StringFlag{
			Name:        "health-addr",
			Usage:       "listen address for /health and /metrics",
			Sources:     cli.EnvVars("REMINDER_HEALTH_ADDR"),
			Value:       DefaultHealth,
			Destination: &cfg.HealthAddr,
		},
		&cli.StringFlag{
			Name:        "tz",
			Usage:       "timezone for chats that have not set one",
			Sources:     cli.EnvVars("REMINDER_DEFAULT_TZ"),
			Value:       "UTC",
			Destination: &cfg.DefaultTZ,
		},
		&cli.StringFlag{
			Name:        "separator",
			Usage:       "reminder delimiter in the rewriter reply",
			Sources:     cli.EnvVars("REMINDER_SEPARATOR"),
			Value:       splitter.DefaultSeparator,
			Destination: &cfg.Separator,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Sources:     cli.EnvVars("REMINDER_LOG_LEVEL"),
			Value:       "info",
			Destination: &cfg.LogLevel,
		},
		&cli.BoolFlag{
			Name:        "pretty",
			Usage:       "human-readable console logs",
			Sources:     cli.EnvVars("REMINDER_LOG_PRETTY"),
			Destination: &cfg.LogPretty,
		},
		&cli.DurationFlag{
			Name:        "rewrite-timeout",
			Sources:     cli.EnvVars("REMINDER_REWRITE_TIMEOUT"),
			Value:       defaultRewriteTimeout,
			Destination: &cfg.RewriteTimeout,
		},
		&cli.DurationFlag{
			Name:        "transport-timeout",
			Sources:     cli.EnvVars("REMINDER_TRANSPORT_TIMEOUT"),
			Value:       defaultTransportTimeout,
			Destination: &cfg.TransportTimeout,
		},
		&cli.DurationFlag{
			Name:        "sweep-interval",
			Usage:       "how often failed deletions are retried",
			Sources:     cli.EnvVars("REMINDER_SWEEP_INTERVAL"),
			Value:       defaultSweepInterval,
			Destination: &cfg.SweepInterval,
		},
	}
}

// Validate reports every missing or invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.TelegramToken == "" {
		errs = append(errs, errors.New("telegram token not found: set the telegram_bot_token secret or TELEGRAM_BOT_TOKEN"))
	}
	if c.OpenAIKey == "" {
		errs = append(errs, errors.New("openai key not found: set the openai_api_key secret or OPENAI_API_KEY"))
	}
	if c.RewriteTimeout <= 0 || c.TransportTimeout <= 0 || c.SweepInterval <= 0 {
		errs = append(errs, errors.New("timeouts and intervals must be positive"))
	}
	if _, err := time.LoadLocation(c.DefaultTZ); err != nil {
		errs = append(errs, fmt.Errorf("default timezone: %w", err))
	}
	return errors.Join(errs...)
}
