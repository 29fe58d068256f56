// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath     = "config.toml"
	DefaultHTTPAddr       = ":3000"
	DefaultPGHost         = "127.0.0.1"
	DefaultPGPort         = 5432
	DefaultPGUser         = "postgres"
	DefaultPGDatabase     = "notiongram"
	DefaultPGSSLMode      = "disable"
	DefaultDigestCron     = "0 0 18 * * *"
	DefaultDigestTimezone = "Asia/Singapore"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Postgres PostgresConfig `toml:"postgres"`
	Notion   NotionConfig   `toml:"notion"`
	Telegram TelegramConfig `toml:"telegram"`
	Digest   DigestConfig   `toml:"digest"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// NotionConfig holds the Notion integration token and target database ids.
type NotionConfig struct {
	APIKey            string `toml:"api_key"`
	DiaryDatabaseID   string `toml:"diary_database_id"`
	ExpenseDatabaseID string `toml:"expense_database_id"`
}

// TelegramConfig holds the bot token and the legacy single-recipient chat id
// used when no recipients are registered in the directory.
type TelegramConfig struct {
	BotToken      string `toml:"bot_token"`
	DefaultChatID int64  `toml:"default_chat_id"`
}

// DigestConfig holds the expense digest cron pattern and timezone.
type DigestConfig struct {
	Cron     string `toml:"cron"`
	Timezone string `toml:"timezone"`
}

// Load reads and parses the TOML config file at path and applies default values
// for missing fields. A missing file yields the defaults so that env-only
// deployments work without a config.toml.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Digest: DigestConfig{
			Cron:     DefaultDigestCron,
			Timezone: DefaultDigestTimezone,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
