package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env                   string
	DiscordToken          string
	DatabaseURL           string
	HTTPPort              int
	DefaultTimezone       string
	DefaultXPPerGift      int
	ReportWebhookURL      string
	AutostartPollInterval time.Duration
	TikTokSessionID       string
	ConnectPromptText     string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be a valid port, got %d", c.HTTPPort)
	}
	if c.DefaultXPPerGift <= 0 {
		return fmt.Errorf("DEFAULT_XP_PER_GIFT must be positive, got %d", c.DefaultXPPerGift)
	}
	if c.AutostartPollInterval <= 0 {
		return fmt.Errorf("AUTOSTART_POLL_INTERVAL must be positive, got %s", c.AutostartPollInterval)
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("DEFAULT_TIMEZONE is invalid: %w", err)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DISCORD_BOT_TOKEN", value: c.DiscordToken},
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "DEFAULT_TIMEZONE", value: c.DefaultTimezone},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
