// Package config provides configuration file parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fgeck/emergency-shutdown/internal/models"
	"github.com/spf13/viper"
)

// DefaultNotifyTimeout bounds each notification when notify_timeout is unset.
const DefaultNotifyTimeout = time.Second

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	return &Parser{v: v}
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.Config, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.Config, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

// Defaults returns the configuration used when no file is given.
func Defaults() *models.Config {
	return &models.Config{
		Host:          defaultHost(),
		NotifyTimeout: DefaultNotifyTimeout,
	}
}

func (p *Parser) parse() (*models.Config, error) {
	cfg := &models.Config{
		Host:          p.v.GetString("host"),
		NotifyTimeout: p.v.GetDuration("notify_timeout"),
	}

	if cfg.Host == "" {
		cfg.Host = defaultHost()
	}
	if cfg.NotifyTimeout == 0 {
		cfg.NotifyTimeout = DefaultNotifyTimeout
	}
	if err := validateNotifyTimeout(cfg.NotifyTimeout); err != nil {
		return nil, err
	}

	// Parse optional Telegram config.
	if p.v.IsSet("telegram") {
		cfg.Telegram = &models.TelegramConfig{
			BotToken: p.expandEnv(p.v.GetString("telegram.bot_token")),
			ChatID:   p.expandEnv(p.v.GetString("telegram.chat_id")),
		}

		if cfg.Telegram.BotToken == "" {
			return nil, fmt.Errorf("telegram.bot_token is required when telegram is configured")
		}
		if cfg.Telegram.ChatID == "" {
			return nil, fmt.Errorf("telegram.chat_id is required when telegram is configured")
		}
	}

	return cfg, nil
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

func defaultHost() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "unknown"
	}
	return hostname
}

// Validate performs validation on the loaded configuration.
func Validate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if cfg.Host == "" {
		return fmt.Errorf("host is required")
	}

	if err := validateNotifyTimeout(cfg.NotifyTimeout); err != nil {
		return err
	}

	if cfg.Telegram != nil {
		if cfg.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is configured")
		}
		if cfg.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is configured")
		}
	}

	return nil
}

func validateNotifyTimeout(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("notify_timeout must not be negative")
	}
	if d > models.MaxNotifyTimeout {
		return fmt.Errorf("notify_timeout %s exceeds the maximum of %s", d, models.MaxNotifyTimeout)
	}
	return nil
}
