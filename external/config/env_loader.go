package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/creatorsconnections/liveboard/internal/config"
)

type envConfig struct {
	Env                   string        `env:"ENV" envDefault:"production"`
	DiscordToken          string        `env:"DISCORD_BOT_TOKEN,required"`
	DatabaseURL           string        `env:"DATABASE_URL,required"`
	HTTPPort              int           `env:"HTTP_PORT" envDefault:"8080"`
	DefaultTimezone       string        `env:"DEFAULT_TIMEZONE" envDefault:"Etc/UTC"`
	DefaultXPPerGift      int           `env:"DEFAULT_XP_PER_GIFT" envDefault:"10"`
	ReportWebhookURL      string        `env:"REPORT_WEBHOOK_URL"`
	AutostartPollInterval time.Duration `env:"AUTOSTART_POLL_INTERVAL" envDefault:"30s"`
	TikTokSessionID       string        `env:"TIKTOK_SESSIONID"`
	ConnectPromptText     string        "env:\"CONNECT_PROMPT_TEXT\" envDefault:\"🔗 Connect your TikTok to your Discord so you can appear on the board and earn roles!\\nUse: `/tokconnect your_tiktok_name` (no @)\""
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                   raw.Env,
		DiscordToken:          raw.DiscordToken,
		DatabaseURL:           raw.DatabaseURL,
		HTTPPort:              raw.HTTPPort,
		DefaultTimezone:       raw.DefaultTimezone,
		DefaultXPPerGift:      raw.DefaultXPPerGift,
		ReportWebhookURL:      raw.ReportWebhookURL,
		AutostartPollInterval: raw.AutostartPollInterval,
		TikTokSessionID:       raw.TikTokSessionID,
		ConnectPromptText:     raw.ConnectPromptText,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
