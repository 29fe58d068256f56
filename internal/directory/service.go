// Package directory resolves people to their registered messaging-platform
// identifiers backed by the users/platforms/user_platforms tables.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/notiongram/notiongram/internal/db"
)

// Querier is the subset of pgxpool.Pool the directory needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Service struct {
	logger *slog.Logger
	pool   Querier
}

func NewService(log *slog.Logger, pool Querier) *Service {
	return &Service{
		logger: log.With(slog.String("service", "directory")),
		pool:   pool,
	}
}

// The join from users must stay a left join so people with zero registered
// platforms still appear (with NULL platform columns) instead of being
// silently dropped.
const resolveQuery = `
SELECT u.name, u.nickname, u.email, p.name, p.base_url, up.identifier
FROM users u
LEFT JOIN user_platforms up ON up.user_id = u.id
LEFT JOIN platforms p ON p.id = up.platform_id
WHERE u.email = ANY($1)
ORDER BY u.email, p.name NULLS LAST, up.id
`

// Resolve returns one ContactRecord per (person, platform) pair registered for
// the given emails. An empty input returns an empty slice without querying.
func (s *Service) Resolve(ctx context.Context, emails []string) ([]ContactRecord, error) {
	if len(emails) == 0 {
		return []ContactRecord{}, nil
	}

	rows, err := s.pool.Query(ctx, resolveQuery, emails)
	if err != nil {
		return nil, fmt.Errorf("query contact records: %w", err)
	}
	defer rows.Close()

	records := make([]ContactRecord, 0, len(emails))
	for rows.Next() {
		var (
			name, email                                string
			nickname, platformName, baseURL, identity pgtype.Text
		)
		if err := rows.Scan(&name, &nickname, &email, &platformName, &baseURL, &identity); err != nil {
			return nil, fmt.Errorf("scan contact record: %w", err)
		}
		records = append(records, ContactRecord{
			Name:         name,
			Nickname:     db.TextToString(nickname),
			Email:        email,
			PlatformName: db.TextToString(platformName),
			BaseURL:      db.TextToString(baseURL),
			Identifier:   db.TextToString(identity),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read contact records: %w", err)
	}
	return records, nil
}

const recipientsQuery = `
SELECT up.id, u.name, u.nickname, up.metadata
FROM user_platforms up
JOIN platforms p ON p.id = up.platform_id
JOIN users u ON u.id = up.user_id
WHERE p.name = 'Telegram' AND up.metadata ? 'telegram_chat_id'
ORDER BY up.id
`

// TelegramRecipients returns every contact with a telegram_chat_id recorded in
// their platform metadata. Rows whose chat id cannot be parsed are logged and
// skipped rather than failing the whole fan-out.
func (s *Service) TelegramRecipients(ctx context.Context) ([]Recipient, error) {
	rows, err := s.pool.Query(ctx, recipientsQuery)
	if err != nil {
		return nil, fmt.Errorf("query telegram recipients: %w", err)
	}
	defer rows.Close()

	var recipients []Recipient
	for rows.Next() {
		var (
			id       int
			name     string
			nickname pgtype.Text
			metadata []byte
		)
		if err := rows.Scan(&id, &name, &nickname, &metadata); err != nil {
			return nil, fmt.Errorf("scan telegram recipient: %w", err)
		}
		chatID, ok := chatIDFromMetadata(metadata)
		if !ok {
			s.logger.Warn("skipping recipient with unparsable telegram_chat_id", slog.Int("user_platform_id", id))
			continue
		}
		display := db.TextToString(nickname)
		if display == "" {
			display = name
		}
		recipients = append(recipients, Recipient{ID: id, Name: display, ChatID: chatID})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read telegram recipients: %w", err)
	}
	return recipients, nil
}

func chatIDFromMetadata(raw []byte) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, false
	}
	switch v := payload["telegram_chat_id"].(type) {
	case float64:
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
