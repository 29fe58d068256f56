// Package diary clones the most recent diary page into a fresh entry for
// today, once per day.
package diary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jomei/notionapi"
)

// Page property names on diary entries.
const (
	entryDateProperty = "Entry date"
	titleProperty     = "Name"
	createdProperty   = "Created"
	updatedProperty   = "Updated"
)

// titleFormat renders "Monday, 02 January".
const titleFormat = "Monday, 02 January"

const recentPageWindow = 5

// DatabaseQuerier is the slice of the Notion database API the workflow needs.
type DatabaseQuerier interface {
	Query(ctx context.Context, id notionapi.DatabaseID, request *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// BlockLister lists the child blocks of a page.
type BlockLister interface {
	GetChildren(ctx context.Context, id notionapi.BlockID, pagination *notionapi.Pagination) (*notionapi.GetChildrenResponse, error)
}

// PageCreator creates a page in a database.
type PageCreator interface {
	Create(ctx context.Context, request *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

type Service struct {
	logger     *slog.Logger
	databases  DatabaseQuerier
	blocks     BlockLister
	pages      PageCreator
	databaseID string
	location   *time.Location
	now        func() time.Time
}

func NewService(log *slog.Logger, databases DatabaseQuerier, blocks BlockLister, pages PageCreator, databaseID string, location *time.Location) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{
		logger:     log.With(slog.String("service", "diary")),
		databases:  databases,
		blocks:     blocks,
		pages:      pages,
		databaseID: databaseID,
		location:   location,
		now:        time.Now,
	}
}

// Rollover clones the most recent diary entry into a new page dated today.
// Running twice in a day is a no-op: the second run sees today's entry on top
// of the date-descending query and exits. Creation is the single write, so an
// aborted run leaves the database untouched.
func (s *Service) Rollover(ctx context.Context) (Result, error) {
	resp, err := s.databases.Query(ctx, notionapi.DatabaseID(s.databaseID), &notionapi.DatabaseQueryRequest{
		PageSize: recentPageWindow,
		Sorts: []notionapi.SortObject{
			{Property: entryDateProperty, Direction: notionapi.SortOrderDESC},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("query diary database: %w", err)
	}
	if len(resp.Results) == 0 {
		s.logger.Info("diary database is empty; nothing to roll over")
		return Result{Outcome: OutcomeNoRecent}, nil
	}
	recent := resp.Results[0]

	today := s.now().In(s.location)
	if entry, ok := entryDate(recent); ok && sameDay(entry.In(s.location), today) {
		s.logger.Info("an entry for today already exists", slog.String("page_id", string(recent.ID)))
		return Result{Outcome: OutcomeAlreadyExists, PageID: string(recent.ID)}, nil
	}

	children, err := s.blocks.GetChildren(ctx, notionapi.BlockID(recent.ID), &notionapi.Pagination{PageSize: 100})
	if err != nil {
		return Result{}, fmt.Errorf("list blocks of page %s: %w", recent.ID, err)
	}

	created, err := s.pages.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(s.databaseID),
		},
		Properties: s.todaysProperties(recent.Properties, today),
		Children:   children.Results,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create diary page: %w", err)
	}
	if created == nil || created.ID == "" {
		return Result{}, fmt.Errorf("create diary page: response did not confirm creation")
	}

	s.logger.Info("created today's diary entry",
		slog.String("page_id", string(created.ID)), slog.String("cloned_from", string(recent.ID)))
	return Result{Outcome: OutcomeCreated, PageID: string(created.ID)}, nil
}

// todaysProperties clones the source properties minus identity and read-only
// fields, then stamps today's date and a formatted title.
func (s *Service) todaysProperties(source notionapi.Properties, today time.Time) notionapi.Properties {
	props := notionapi.Properties{}
	for name, prop := range source {
		switch name {
		case titleProperty, createdProperty, updatedProperty:
			continue
		}
		props[name] = prop
	}

	// midnight so the date serializes without a time component
	start := notionapi.Date(time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.location))
	props[entryDateProperty] = notionapi.DateProperty{
		Type: notionapi.PropertyTypeDate,
		Date: &notionapi.DateObject{Start: &start},
	}
	props[titleProperty] = notionapi.TitleProperty{
		Type: notionapi.PropertyTypeTitle,
		Title: []notionapi.RichText{
			{Text: &notionapi.Text{Content: today.Format(titleFormat)}},
		},
	}
	return props
}

func entryDate(page notionapi.Page) (time.Time, bool) {
	prop, ok := page.Properties[entryDateProperty]
	if !ok {
		return time.Time{}, false
	}
	date, ok := prop.(*notionapi.DateProperty)
	if !ok || date.Date == nil || date.Date.Start == nil {
		return time.Time{}, false
	}
	return time.Time(*date.Date.Start), true
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
