package diary

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jomei/notionapi"
)

type fakeDatabases struct {
	resp *notionapi.DatabaseQueryResponse
	err  error
}

func (f *fakeDatabases) Query(ctx context.Context, id notionapi.DatabaseID, request *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeBlocks struct {
	resp *notionapi.GetChildrenResponse
	err  error
}

func (f *fakeBlocks) GetChildren(ctx context.Context, id notionapi.BlockID, pagination *notionapi.Pagination) (*notionapi.GetChildrenResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &notionapi.GetChildrenResponse{}, nil
}

type fakePages struct {
	requests []*notionapi.PageCreateRequest
	err      error
}

func (f *fakePages) Create(ctx context.Context, request *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	f.requests = append(f.requests, request)
	if f.err != nil {
		return nil, f.err
	}
	return &notionapi.Page{ID: "new-page"}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func newTestService(databases *fakeDatabases, blocks *fakeBlocks, pages *fakePages, now time.Time) *Service {
	svc := NewService(testLogger(), databases, blocks, pages, "diary-db", time.UTC)
	svc.now = func() time.Time { return now }
	return svc
}

func diaryPage(id string, entry time.Time, extra notionapi.Properties) notionapi.Page {
	start := notionapi.Date(entry)
	props := notionapi.Properties{
		titleProperty: &notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{{PlainText: entry.Format(titleFormat)}},
		},
		entryDateProperty: &notionapi.DateProperty{
			Type: notionapi.PropertyTypeDate,
			Date: &notionapi.DateObject{Start: &start},
		},
		createdProperty: &notionapi.CreatedTimeProperty{Type: notionapi.PropertyTypeCreatedTime},
		updatedProperty: &notionapi.LastEditedTimeProperty{Type: notionapi.PropertyTypeLastEditedTime},
	}
	for name, prop := range extra {
		props[name] = prop
	}
	return notionapi.Page{ID: notionapi.ObjectID(id), Properties: props}
}

func TestRolloverEmptyDatabaseIsNoOp(t *testing.T) {
	t.Parallel()

	pages := &fakePages{}
	svc := newTestService(
		&fakeDatabases{resp: &notionapi.DatabaseQueryResponse{}},
		&fakeBlocks{},
		pages,
		time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
	)

	result, err := svc.Rollover(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Outcome != OutcomeNoRecent {
		t.Errorf("Outcome = %q, want no_recent", result.Outcome)
	}
	if len(pages.requests) != 0 {
		t.Fatal("no page may be created")
	}
}

func TestRolloverTodayAlreadyExists(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	pages := &fakePages{}
	svc := newTestService(
		&fakeDatabases{resp: &notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{diaryPage("today", now, nil)},
		}},
		&fakeBlocks{},
		pages,
		now,
	)

	result, err := svc.Rollover(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Outcome != OutcomeAlreadyExists {
		t.Errorf("Outcome = %q, want already_exists", result.Outcome)
	}
	if len(pages.requests) != 0 {
		t.Fatal("idempotent runs must not create a page")
	}
}

func TestRolloverClonesYesterdaysEntry(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	yesterday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mood := &notionapi.RichTextProperty{
		Type:     notionapi.PropertyTypeRichText,
		RichText: []notionapi.RichText{{PlainText: "good"}},
	}
	blocks := &fakeBlocks{resp: &notionapi.GetChildrenResponse{
		Results: []notionapi.Block{&notionapi.ParagraphBlock{}},
	}}
	pages := &fakePages{}
	svc := newTestService(
		&fakeDatabases{resp: &notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{diaryPage("yesterday", yesterday, notionapi.Properties{"Mood": mood})},
		}},
		blocks,
		pages,
		now,
	)

	result, err := svc.Rollover(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Outcome != OutcomeCreated {
		t.Errorf("Outcome = %q, want created", result.Outcome)
	}
	if result.PageID != "new-page" {
		t.Errorf("PageID = %q", result.PageID)
	}

	if len(pages.requests) != 1 {
		t.Fatalf("expected one create call, got %d", len(pages.requests))
	}
	req := pages.requests[0]

	if req.Parent.Type != notionapi.ParentTypeDatabaseID || req.Parent.DatabaseID != "diary-db" {
		t.Errorf("unexpected parent: %+v", req.Parent)
	}
	if len(req.Children) != 1 {
		t.Errorf("expected cloned children, got %d", len(req.Children))
	}

	title, ok := req.Properties[titleProperty].(notionapi.TitleProperty)
	if !ok || len(title.Title) != 1 || title.Title[0].Text == nil {
		t.Fatalf("unexpected title property: %+v", req.Properties[titleProperty])
	}
	if got := title.Title[0].Text.Content; got != "Tuesday, 02 January" {
		t.Errorf("title = %q, want %q", got, "Tuesday, 02 January")
	}

	date, ok := req.Properties[entryDateProperty].(notionapi.DateProperty)
	if !ok || date.Date == nil || date.Date.Start == nil {
		t.Fatalf("unexpected date property: %+v", req.Properties[entryDateProperty])
	}
	if got := time.Time(*date.Date.Start); !got.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("entry date = %v, want today's midnight", got)
	}

	if _, ok := req.Properties["Mood"]; !ok {
		t.Error("other properties must be copied verbatim")
	}
	if _, ok := req.Properties[createdProperty]; ok {
		t.Error("Created must not be copied")
	}
	if _, ok := req.Properties[updatedProperty]; ok {
		t.Error("Updated must not be copied")
	}
}

func TestRolloverQueryFailureAborts(t *testing.T) {
	t.Parallel()

	pages := &fakePages{}
	svc := newTestService(
		&fakeDatabases{err: errors.New("api down")},
		&fakeBlocks{},
		pages,
		time.Now(),
	)

	if _, err := svc.Rollover(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(pages.requests) != 0 {
		t.Fatal("aborted runs must not create a page")
	}
}

func TestRolloverBlockListFailureAborts(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	pages := &fakePages{}
	svc := newTestService(
		&fakeDatabases{resp: &notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{diaryPage("yesterday", yesterday, nil)},
		}},
		&fakeBlocks{err: errors.New("api down")},
		pages,
		now,
	)

	if _, err := svc.Rollover(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(pages.requests) != 0 {
		t.Fatal("aborted runs must not create a page")
	}
}
