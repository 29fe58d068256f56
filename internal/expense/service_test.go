package expense

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jomei/notionapi"

	"github.com/notiongram/notiongram/internal/directory"
)

type fakeDatabases struct {
	pages    [][]notionapi.Page
	err      error
	requests []*notionapi.DatabaseQueryRequest
}

func (f *fakeDatabases) Query(ctx context.Context, id notionapi.DatabaseID, request *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	f.requests = append(f.requests, request)
	if f.err != nil {
		return nil, f.err
	}
	call := len(f.requests) - 1
	if call >= len(f.pages) {
		return &notionapi.DatabaseQueryResponse{}, nil
	}
	return &notionapi.DatabaseQueryResponse{
		Results:    f.pages[call],
		HasMore:    call < len(f.pages)-1,
		NextCursor: notionapi.Cursor("next"),
	}, nil
}

type fakeSender struct {
	sent    []tgbotapi.MessageConfig
	failFor map[int64]error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable type")
	}
	f.sent = append(f.sent, msg)
	if err, ok := f.failFor[msg.ChatID]; ok {
		return tgbotapi.Message{}, err
	}
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

type fakeRecipients struct {
	recipients []directory.Recipient
	err        error
}

func (f *fakeRecipients) TelegramRecipients(ctx context.Context) ([]directory.Recipient, error) {
	return f.recipients, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func newTestService(databases *fakeDatabases, bot *fakeSender, recipients *fakeRecipients, defaultChatID int64) *Service {
	svc := NewService(testLogger(), databases, bot, recipients, "expense-db", defaultChatID, time.UTC)
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 19, 0, 0, 0, time.UTC) }
	return svc
}

func TestDigestText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		count int
		want  string
	}{
		{0, "No expenses today? Add new ones if there are any."},
		{1, "1 expense added for today."},
		{2, "2 expenses added for today."},
		{17, "17 expenses added for today."},
	}
	for _, tt := range tests {
		if got := digestText(tt.count); got != tt.want {
			t.Errorf("digestText(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestRunNoRecipientsSkips(t *testing.T) {
	t.Parallel()

	databases := &fakeDatabases{}
	bot := &fakeSender{}
	svc := newTestService(databases, bot, &fakeRecipients{}, 0)

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(databases.requests) != 0 {
		t.Error("expense database must not be queried without recipients")
	}
	if len(bot.sent) != 0 {
		t.Error("nothing may be sent without recipients")
	}
}

func TestRunFallsBackToDefaultChatID(t *testing.T) {
	t.Parallel()

	databases := &fakeDatabases{pages: [][]notionapi.Page{{{ID: "e1"}}}}
	bot := &fakeSender{}
	svc := newTestService(databases, bot, &fakeRecipients{}, 777)

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(bot.sent) != 1 || bot.sent[0].ChatID != 777 {
		t.Fatalf("expected one send to the default chat, got %+v", bot.sent)
	}
	if bot.sent[0].Text != "1 expense added for today." {
		t.Errorf("text = %q", bot.sent[0].Text)
	}
}

func TestRunSendsDigestToAllRecipients(t *testing.T) {
	t.Parallel()

	databases := &fakeDatabases{pages: [][]notionapi.Page{{{ID: "e1"}, {ID: "e2"}}}}
	bot := &fakeSender{}
	recipients := &fakeRecipients{recipients: []directory.Recipient{
		{ID: 1, Name: "al", ChatID: 100},
		{ID: 2, Name: "bob", ChatID: 200},
	}}
	svc := newTestService(databases, bot, recipients, 0)

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(bot.sent) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(bot.sent))
	}
	for _, msg := range bot.sent {
		if msg.Text != "2 expenses added for today." {
			t.Errorf("text = %q", msg.Text)
		}
	}
}

func TestRunContinuesPastSendFailure(t *testing.T) {
	t.Parallel()

	databases := &fakeDatabases{}
	bot := &fakeSender{failFor: map[int64]error{100: errors.New("blocked")}}
	recipients := &fakeRecipients{recipients: []directory.Recipient{
		{ID: 1, Name: "al", ChatID: 100},
		{ID: 2, Name: "bob", ChatID: 200},
	}}
	svc := newTestService(databases, bot, recipients, 0)

	err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if len(bot.sent) != 2 {
		t.Fatalf("the loop must continue past a failure, got %d sends", len(bot.sent))
	}
}

func TestRunCountsAcrossPages(t *testing.T) {
	t.Parallel()

	databases := &fakeDatabases{pages: [][]notionapi.Page{
		{{ID: "e1"}, {ID: "e2"}},
		{{ID: "e3"}},
	}}
	bot := &fakeSender{}
	recipients := &fakeRecipients{recipients: []directory.Recipient{{ID: 1, Name: "al", ChatID: 100}}}
	svc := newTestService(databases, bot, recipients, 0)

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(databases.requests) != 2 {
		t.Fatalf("expected paginated queries, got %d", len(databases.requests))
	}
	if bot.sent[0].Text != "3 expenses added for today." {
		t.Errorf("text = %q", bot.sent[0].Text)
	}
}

func TestRunRecipientLookupFailure(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeDatabases{}, &fakeSender{}, &fakeRecipients{err: errors.New("db down")}, 0)
	if err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
