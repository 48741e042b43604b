// Load envs from .env
// Load YAML config
// Override with env vars
// Provide default values
// Validate config

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-afriwork-autoapply/internal/ai"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Afriwork  AfriworkConfig `yaml:"afriwork"`
	Telegram  TelegramConfig `yaml:"telegram"`
	AI        AIConfig       `yaml:"ai"`
	Filter    FilterConfig   `yaml:"filter"`
	AutoApply *bool          `yaml:"auto_apply"`
	Store     StoreConfig    `yaml:"store"`
	Server    ServerConfig   `yaml:"server"`
	LogLevel  string         `yaml:"log_level"`
	CachePath string         `yaml:"cache_path"`
}

type AfriworkConfig struct {
	APIURL                 string        `yaml:"api_url"`
	AuthURL                string        `yaml:"auth_url"`
	Origin                 string        `yaml:"origin"`
	UserAgent              string        `yaml:"user_agent"`
	InitData               string        `yaml:"init_data"`
	PlatformName           string        `yaml:"platform_name"`
	RequestTimeout         time.Duration `yaml:"request_timeout"`
	InsecureSkipVerify     bool          `yaml:"insecure_skip_verify"`
	AllowMalformedIdentity bool          `yaml:"allow_malformed_identity"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	// ChatID receives notifications.
	ChatID int64 `yaml:"chat_id"`
	// ChannelID is the job channel to watch.
	ChannelID string `yaml:"channel_id"`
	// Username is sent with every application.
	Username string `yaml:"username"`
}

type AIConfig struct {
	APIKey    string       `yaml:"api_key"`
	Model     string       `yaml:"model"`
	Prompt    string       `yaml:"prompt"`
	Expertise ai.Expertise `yaml:"expertise"`
}

type FilterConfig struct {
	Keywords       []string `yaml:"keywords"`
	MinimumMatches int      `yaml:"minimum_matches"`
}

type StoreConfig struct {
	Driver      string `yaml:"driver"`
	Dir         string `yaml:"dir"`
	DatabaseURL string `yaml:"database_url"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// AutoApplyEnabled reports the auto_apply setting, true when unset.
func (c *Config) AutoApplyEnabled() bool {
	return c.AutoApply == nil || *c.AutoApply
}

// Load reads .env, then the YAML file named by AUTOAPPLY_CONFIG (or
// DefaultPath), then environment overrides, and fills defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("AUTOAPPLY_CONFIG")
	if path == "" {
		path = DefaultPath
	}
	return LoadFile(path)
}

// LoadFile is Load without the .env step. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Afriwork.InitData, "TELEGRAM_INIT_DATA")
	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.ChannelID, "CHANNEL_ID")
	setString(&c.Telegram.Username, "TELEGRAM_USERNAME")
	setString(&c.AI.APIKey, "GROQ_API_KEY")
	setString(&c.Store.DatabaseURL, "DATABASE_URL")
	setString(&c.Store.RedisAddr, "REDIS_ADDR")
	setString(&c.Store.Driver, "STORE_DRIVER")
	setString(&c.Server.Port, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}

	if v := os.Getenv("AUTO_APPLY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid AUTO_APPLY: %w", err)
		}
		c.AutoApply = &b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Afriwork.RequestTimeout <= 0 {
		c.Afriwork.RequestTimeout = 20 * time.Second
	}
	if c.Afriwork.PlatformName == "" {
		c.Afriwork.PlatformName = "BOT"
	}
	if c.Filter.MinimumMatches <= 0 {
		c.Filter.MinimumMatches = 3
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "file"
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "."
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.CachePath == "" {
		c.CachePath = ".cache"
	}
}

// ValidateApply checks what every application run needs.
func (c *Config) ValidateApply() error {
	if strings.TrimSpace(c.Afriwork.InitData) == "" {
		return errors.New("TELEGRAM_INIT_DATA is required")
	}
	return nil
}

// ValidateWatch checks what the channel watcher needs on top of ValidateApply.
func (c *Config) ValidateWatch() error {
	if err := c.ValidateApply(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	if c.Telegram.ChannelID == "" {
		return errors.New("CHANNEL_ID is required")
	}
	if len(c.Filter.Keywords) == 0 {
		return errors.New("filter.keywords must not be empty")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
