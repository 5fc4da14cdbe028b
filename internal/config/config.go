// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	GroupID  int64   `yaml:"group_id"` // the managed paid group
	AdminIDs []int64 `yaml:"admin_ids"`
	Workers  int     `yaml:"workers"` // polling workers
	Language string  `yaml:"language"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	StateTTL time.Duration `yaml:"state_ttl"` // conversation state lifetime
}

type PaymentConfig struct {
	YooKassa struct {
		ShopID    string `yaml:"shop_id"`
		SecretKey string `yaml:"secret_key"`
		ReturnURL string `yaml:"return_url"` // where the gateway sends the user back
	} `yaml:"yookassa"`
	WebhookPort int `yaml:"webhook_port"`
}

type SubscriptionConfig struct {
	TermDays      int    `yaml:"term_days"`       // membership term per payment
	GraceDays     int    `yaml:"grace_days"`      // tolerated overstay before revocation
	InviteTTLDays int    `yaml:"invite_ttl_days"` // invite link validity, must be < term
	MinAmount     int64  `yaml:"min_amount"`      // whole currency units
	Currency      string `yaml:"currency"`
}

type SchedulerConfig struct {
	ExpiryInterval  time.Duration `yaml:"expiry_interval"`
	WarningInterval time.Duration `yaml:"warning_interval"`
}

type WebConfig struct {
	Port          int           `yaml:"port"`
	SessionSecret string        `yaml:"session_secret"`
	AdminPassword string        `yaml:"admin_password"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

type Config struct {
	Bot          BotConfig          `yaml:"bot"`
	Log          LogConfig          `yaml:"log"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Payment      PaymentConfig      `yaml:"payment"`
	Subscription SubscriptionConfig `yaml:"subscription"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Web          WebConfig          `yaml:"web"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 8
	}
	if c.Bot.Language == "" {
		c.Bot.Language = "ru"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.Redis.StateTTL <= 0 {
		c.Redis.StateTTL = 15 * time.Minute
	}
	if c.Payment.WebhookPort == 0 {
		c.Payment.WebhookPort = 8080
	}
	if c.Subscription.TermDays <= 0 {
		c.Subscription.TermDays = 30
	}
	if c.Subscription.GraceDays <= 0 {
		c.Subscription.GraceDays = 5
	}
	if c.Subscription.InviteTTLDays <= 0 {
		c.Subscription.InviteTTLDays = 3
	}
	if c.Subscription.MinAmount <= 0 {
		c.Subscription.MinAmount = 1500
	}
	if c.Subscription.Currency == "" {
		c.Subscription.Currency = "RUB"
	}
	if c.Scheduler.ExpiryInterval <= 0 {
		c.Scheduler.ExpiryInterval = time.Hour
	}
	if c.Scheduler.WarningInterval <= 0 {
		c.Scheduler.WarningInterval = 6 * time.Hour
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8081
	}
	if c.Web.SessionTTL <= 0 {
		c.Web.SessionTTL = 30 * time.Minute
	}
}

func (c *Config) validate() error {
	if c.Bot.Token == "" && !c.Runtime.Dev {
		return errors.New("bot.token is required")
	}
	if c.Bot.GroupID == 0 {
		return errors.New("bot.group_id is required")
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Subscription.InviteTTLDays >= c.Subscription.TermDays {
		return fmt.Errorf("subscription.invite_ttl_days (%d) must be shorter than term_days (%d)",
			c.Subscription.InviteTTLDays, c.Subscription.TermDays)
	}
	return nil
}

// Term, Grace and InviteTTL expose the day-valued settings as durations.
func (c *SubscriptionConfig) Term() time.Duration      { return time.Duration(c.TermDays) * 24 * time.Hour }
func (c *SubscriptionConfig) Grace() time.Duration     { return time.Duration(c.GraceDays) * 24 * time.Hour }
func (c *SubscriptionConfig) InviteTTL() time.Duration {
	return time.Duration(c.InviteTTLDays) * 24 * time.Hour
}
