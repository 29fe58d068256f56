package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jomei/notionapi"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	migrations "github.com/notiongram/notiongram/db"
	"github.com/notiongram/notiongram/internal/boot"
	"github.com/notiongram/notiongram/internal/chat"
	"github.com/notiongram/notiongram/internal/config"
	"github.com/notiongram/notiongram/internal/db"
	"github.com/notiongram/notiongram/internal/diary"
	"github.com/notiongram/notiongram/internal/directory"
	"github.com/notiongram/notiongram/internal/expense"
	"github.com/notiongram/notiongram/internal/handlers"
	"github.com/notiongram/notiongram/internal/logger"
	"github.com/notiongram/notiongram/internal/schedule"
	"github.com/notiongram/notiongram/internal/server"
	"github.com/notiongram/notiongram/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrate(os.Args[2:])
		return
	}

	fx.New(
		fx.Provide(
			provideConfig,
			boot.ProvideRuntimeConfig,
			provideLogger,
			provideLocation,

			provideDBPool,
			provideNotionClient,
			provideTelegramBot,

			provideDirectory,
			provideChatService,
			provideDiaryService,
			provideExpenseService,
			provideScheduler,

			handlers.NewPingHandler,
			handlers.NewChatHandler,
			handlers.NewDiaryHandler,
			provideServer,
		),
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),
		fx.Invoke(startServer, startScheduler),
	).Run()
}

func runMigrate(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: server migrate <up|down|version|force N>")
		os.Exit(1)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	migrationsFS, err := fs.Sub(migrations.MigrationsFS, "migrations")
	if err != nil {
		logger.Error("open migrations", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.RunMigrate(logger.L, cfg.Postgres, migrationsFS, args[0], args[1:]); err != nil {
		logger.Error("migrate failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideLocation(cfg config.Config) (*time.Location, error) {
	loc, err := time.LoadLocation(cfg.Digest.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Digest.Timezone, err)
	}
	return loc, nil
}

func provideDBPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	pool, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			pool.Close()
			return nil
		},
	})
	return pool, nil
}

// provideNotionClient builds the single Notion API client shared by every
// workflow; it is passed by injection rather than constructed per module.
func provideNotionClient(rc *boot.RuntimeConfig) *notionapi.Client {
	return notionapi.NewClient(notionapi.Token(rc.NotionAPIKey))
}

// provideTelegramBot returns nil when no bot token is configured; the expense
// digest is disabled in that case, webhooks still work.
func provideTelegramBot(log *slog.Logger, rc *boot.RuntimeConfig) (*tgbotapi.BotAPI, error) {
	if rc.TelegramBotToken == "" {
		log.Warn("no telegram bot token configured; expense digest disabled")
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(rc.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return bot, nil
}

func provideDirectory(log *slog.Logger, pool *pgxpool.Pool) *directory.Service {
	return directory.NewService(log, pool)
}

func provideChatService(log *slog.Logger, notion *notionapi.Client, dir *directory.Service) *chat.Service {
	return chat.NewService(log, notion.Page, dir)
}

func provideDiaryService(log *slog.Logger, notion *notionapi.Client, rc *boot.RuntimeConfig, loc *time.Location) *diary.Service {
	return diary.NewService(log, notion.Database, notion.Block, notion.Page, rc.DiaryDatabaseID, loc)
}

func provideExpenseService(log *slog.Logger, notion *notionapi.Client, bot *tgbotapi.BotAPI, dir *directory.Service, rc *boot.RuntimeConfig, cfg config.Config, loc *time.Location) *expense.Service {
	if bot == nil || rc.ExpenseDatabaseID == "" {
		return nil
	}
	return expense.NewService(log, notion.Database, bot, dir, rc.ExpenseDatabaseID, cfg.Telegram.DefaultChatID, loc)
}

func provideScheduler(log *slog.Logger, loc *time.Location) *schedule.Service {
	return schedule.NewService(log, loc)
}

func provideServer(log *slog.Logger, rc *boot.RuntimeConfig, ping *handlers.PingHandler, chatHandler *handlers.ChatHandler, diaryHandler *handlers.DiaryHandler) *server.Server {
	return server.NewServer(log, rc.ServerAddr, ping, chatHandler, diaryHandler)
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting notiongram %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

func startScheduler(lc fx.Lifecycle, log *slog.Logger, sched *schedule.Service, digest *expense.Service, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if digest != nil {
				if err := sched.Add(cfg.Digest.Cron, "expense-digest", digest.Run); err != nil {
					return err
				}
			}
			sched.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return sched.Stop(ctx)
		},
	})
}
