// Package expense sends a daily Telegram digest of how many expenses were
// recorded today.
package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jomei/notionapi"
	"golang.org/x/time/rate"

	"github.com/notiongram/notiongram/internal/directory"
)

const datePropertyName = "Date"

const queryPageSize = 100

// Notion allows an average of 3 requests per second per integration.
const notionRequestsPerSecond = 3

// DatabaseQuerier is the slice of the Notion database API the job needs.
type DatabaseQuerier interface {
	Query(ctx context.Context, id notionapi.DatabaseID, request *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// Sender posts a message through the Telegram bot API.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// RecipientSource lists the registered Telegram digest recipients.
type RecipientSource interface {
	TelegramRecipients(ctx context.Context) ([]directory.Recipient, error)
}

type Service struct {
	logger        *slog.Logger
	databases     DatabaseQuerier
	bot           Sender
	recipients    RecipientSource
	databaseID    string
	defaultChatID int64
	location      *time.Location
	limiter       *rate.Limiter
	now           func() time.Time
}

func NewService(log *slog.Logger, databases DatabaseQuerier, bot Sender, recipients RecipientSource, databaseID string, defaultChatID int64, location *time.Location) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{
		logger:        log.With(slog.String("service", "expense")),
		databases:     databases,
		bot:           bot,
		recipients:    recipients,
		databaseID:    databaseID,
		defaultChatID: defaultChatID,
		location:      location,
		limiter:       rate.NewLimiter(rate.Limit(notionRequestsPerSecond), 1),
		now:           time.Now,
	}
}

// Run counts today's expenses and fans the digest out to every registered
// recipient. A per-recipient send failure is logged and does not stop the
// remaining sends; all failures are aggregated into the returned error. With
// no registered recipients the configured default chat id is used, and with
// neither the run is a no-op.
func (s *Service) Run(ctx context.Context) error {
	recipients, err := s.recipients.TelegramRecipients(ctx)
	if err != nil {
		return fmt.Errorf("list digest recipients: %w", err)
	}
	if len(recipients) == 0 {
		if s.defaultChatID == 0 {
			s.logger.Info("no digest recipients registered; skipping")
			return nil
		}
		recipients = []directory.Recipient{{Name: "default", ChatID: s.defaultChatID}}
	}

	count, err := s.countTodaysExpenses(ctx)
	if err != nil {
		return err
	}
	text := digestText(count)

	var sendErrs []error
	for _, recipient := range recipients {
		if _, err := s.bot.Send(tgbotapi.NewMessage(recipient.ChatID, text)); err != nil {
			s.logger.Error("failed to send digest",
				slog.Int64("chat_id", recipient.ChatID), slog.String("recipient", recipient.Name), slog.Any("error", err))
			sendErrs = append(sendErrs, fmt.Errorf("send to chat %d: %w", recipient.ChatID, err))
			continue
		}
		s.logger.Info("digest sent", slog.String("recipient", recipient.Name))
	}
	return errors.Join(sendErrs...)
}

func (s *Service) countTodaysExpenses(ctx context.Context) (int, error) {
	now := s.now().In(s.location)
	today := notionapi.Date(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location))

	filter := notionapi.OrCompoundFilter{
		notionapi.PropertyFilter{
			Property: datePropertyName,
			Date:     &notionapi.DateFilterCondition{Equals: &today},
		},
	}

	count := 0
	var cursor notionapi.Cursor
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return 0, err
		}
		resp, err := s.databases.Query(ctx, notionapi.DatabaseID(s.databaseID), &notionapi.DatabaseQueryRequest{
			Filter:      filter,
			PageSize:    queryPageSize,
			StartCursor: cursor,
			Sorts: []notionapi.SortObject{
				{Property: datePropertyName, Direction: notionapi.SortOrderDESC},
			},
		})
		if err != nil {
			return 0, fmt.Errorf("query expense database: %w", err)
		}
		count += len(resp.Results)
		if !resp.HasMore {
			return count, nil
		}
		cursor = resp.NextCursor
	}
}
