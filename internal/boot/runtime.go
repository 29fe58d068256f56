// Package boot provides runtime configuration and dependency wiring for the service.
package boot

import (
	"errors"
	"os"
	"strings"

	"github.com/notiongram/notiongram/internal/config"
)

// RuntimeConfig holds parsed runtime settings (server address, API credentials,
// target Notion database ids). Values may be overridden by environment
// variables (e.g. HTTP_ADDR, NOTION_API_KEY, TELEGRAM_BOT_TOKEN).
type RuntimeConfig struct {
	ServerAddr        string
	NotionAPIKey      string
	TelegramBotToken  string
	DiaryDatabaseID   string
	ExpenseDatabaseID string
}

// ProvideRuntimeConfig builds RuntimeConfig from the given config and applies env overrides.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	ret := &RuntimeConfig{
		ServerAddr:        cfg.Server.Addr,
		NotionAPIKey:      cfg.Notion.APIKey,
		TelegramBotToken:  cfg.Telegram.BotToken,
		DiaryDatabaseID:   cfg.Notion.DiaryDatabaseID,
		ExpenseDatabaseID: cfg.Notion.ExpenseDatabaseID,
	}

	if value := os.Getenv("HTTP_ADDR"); value != "" {
		ret.ServerAddr = value
	}
	if value := os.Getenv("NOTION_API_KEY"); value != "" {
		ret.NotionAPIKey = value
	}
	if value := os.Getenv("TELEGRAM_BOT_TOKEN"); value != "" {
		ret.TelegramBotToken = value
	}
	if value := os.Getenv("DIARY_DATABASE_ID"); value != "" {
		ret.DiaryDatabaseID = value
	}
	if value := os.Getenv("EXPENSE_DATABASE_ID"); value != "" {
		ret.ExpenseDatabaseID = value
	}

	if strings.TrimSpace(ret.NotionAPIKey) == "" {
		return nil, errors.New("notion api key is required")
	}
	return ret, nil
}
