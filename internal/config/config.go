package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "todoalarm"

// TelegramConfig enables the optional Telegram channel.
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// EmailConfig enables the optional e-mail channel.
type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	From         string `yaml:"from"`
	To           string `yaml:"to"`
}

// Config keeps runtime settings.
type Config struct {
	DatabasePath  string         `yaml:"database_path"`
	CheckInterval time.Duration  `yaml:"check_interval"`
	Headless      bool           `yaml:"headless"`
	Bell          bool           `yaml:"bell"`
	LogFile       string         `yaml:"log_file"`
	ImportFile    string         `yaml:"import_file"`
	Telegram      TelegramConfig `yaml:"telegram"`
	Email         EmailConfig    `yaml:"email"`
}

// Load builds the configuration from defaults, the optional YAML file and
// environment variables, in that order of precedence.
func Load() (Config, error) {
	cfg, err := defaults()
	if err != nil {
		return cfg, err
	}

	path, err := filePath()
	if err != nil {
		return cfg, err
	}
	if err := loadFile(path, &cfg); err != nil {
		return cfg, err
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func defaults() (Config, error) {
	dataDir, err := dataDir()
	if err != nil {
		return Config{}, fmt.Errorf("determine data dir: %w", err)
	}
	return Config{
		DatabasePath:  filepath.Join(dataDir, "todo.db"),
		CheckInterval: time.Minute,
		Bell:          true,
		LogFile:       filepath.Join(dataDir, appName+".log"),
		Email:         EmailConfig{SMTPPort: 587},
	}, nil
}

func dataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, appName), nil
}

func filePath() (string, error) {
	if p := strings.TrimSpace(os.Getenv("TODO_CONFIG")); p != "" {
		return p, nil
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("determine config dir: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appName, "config.yaml"), nil
}

// loadFile overlays the YAML file onto cfg. A missing file is not an error.
func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.DatabasePath, "TODO_DB_PATH")
	setString(&cfg.LogFile, "TODO_LOG_FILE")
	setString(&cfg.ImportFile, "TODO_IMPORT_FILE")
	setString(&cfg.Telegram.Token, "TELEGRAM_TOKEN")
	setString(&cfg.Email.SMTPHost, "SMTP_HOST")
	setString(&cfg.Email.SMTPUser, "SMTP_USER")
	setString(&cfg.Email.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Email.From, "SMTP_FROM")
	setString(&cfg.Email.To, "SMTP_TO")

	if raw := env("TODO_CHECK_INTERVAL_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return fmt.Errorf("TODO_CHECK_INTERVAL_SECONDS must be a positive integer, got %q", raw)
		}
		cfg.CheckInterval = time.Duration(secs) * time.Second
	}
	if err := setBool(&cfg.Headless, "TODO_HEADLESS"); err != nil {
		return err
	}
	if err := setBool(&cfg.Bell, "TODO_BELL"); err != nil {
		return err
	}
	if raw := env("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID must be numeric, got %q", raw)
		}
		cfg.Telegram.ChatID = id
	}
	if raw := env("SMTP_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("SMTP_PORT must be numeric, got %q", raw)
		}
		cfg.Email.SMTPPort = port
	}
	return nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("check interval must be positive")
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}
	if c.Email.SMTPHost != "" && (c.Email.From == "" || c.Email.To == "") {
		return fmt.Errorf("SMTP_FROM and SMTP_TO are required when SMTP_HOST is set")
	}
	return nil
}

// TelegramEnabled reports whether the Telegram channel is configured.
func (c Config) TelegramEnabled() bool {
	return c.Telegram.Token != ""
}

// EmailEnabled reports whether the e-mail channel is configured.
func (c Config) EmailEnabled() bool {
	return c.Email.SMTPHost != ""
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := env(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	raw := env(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	*dst = v
	return nil
}
