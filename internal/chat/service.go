// Package chat turns Notion page-change webhooks into per-platform chat deep
// links written back onto the originating page.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jomei/notionapi"

	"github.com/notiongram/notiongram/internal/directory"
)

// Page property names the workflow reads and writes.
const (
	titleProperty   = "Name"
	peopleProperty  = "Contact person(s)"
	methodsProperty = "Contact method(s)"
)

// PageUpdater is the slice of the Notion page API the workflow needs.
type PageUpdater interface {
	Update(ctx context.Context, id notionapi.PageID, request *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

// Resolver looks up registered platform identifiers for a set of emails.
type Resolver interface {
	Resolve(ctx context.Context, emails []string) ([]directory.ContactRecord, error)
}

type Service struct {
	logger *slog.Logger
	pages  PageUpdater
	dir    Resolver
}

func NewService(log *slog.Logger, pages PageUpdater, dir Resolver) *Service {
	return &Service{
		logger: log.With(slog.String("service", "chat")),
		pages:  pages,
		dir:    dir,
	}
}

// SyncContactMethods re-derives the "Contact method(s)" links for the page in
// the payload. The write is a full replace, so the operation is idempotent.
//
// Outcomes: Cleared when the tagged people list is explicitly empty (an empty
// list is still written), Skipped when people were tagged but none resolved to
// an email (no write at all), Updated on a confirmed write of composed links.
func (s *Service) SyncContactMethods(ctx context.Context, payload WebhookPayload) (Result, error) {
	page := payload.Data
	pageID := string(page.ID)
	if pageID == "" {
		return Result{}, fmt.Errorf("%w: missing page id", ErrInvalidPayload)
	}

	prop, ok := page.Properties[peopleProperty]
	if !ok {
		return Result{}, fmt.Errorf("%w: missing %q property", ErrInvalidPayload, peopleProperty)
	}
	people, ok := prop.(*notionapi.PeopleProperty)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q is not a people property", ErrInvalidPayload, peopleProperty)
	}

	itemTitle := titleFromPage(page)

	if len(people.People) == 0 {
		if err := s.writeMethods(ctx, pageID, nil); err != nil {
			return Result{}, err
		}
		s.logger.Info("contact methods cleared", slog.String("page_id", pageID))
		return Result{Outcome: OutcomeCleared, PageID: pageID, Links: []Link{}}, nil
	}

	emails := make([]string, 0, len(people.People))
	for _, user := range people.People {
		if user.Type != notionapi.UserTypePerson || user.Person == nil || user.Person.Email == "" {
			s.logger.Info("dropping tagged user without resolvable email",
				slog.String("page_id", pageID), slog.String("user_id", string(user.ID)))
			continue
		}
		emails = append(emails, user.Person.Email)
	}
	if len(emails) == 0 {
		s.logger.Info("no resolvable contact emails; skipping", slog.String("page_id", pageID))
		return Result{Outcome: OutcomeSkipped, PageID: pageID}, nil
	}

	records, err := s.dir.Resolve(ctx, emails)
	if err != nil {
		return Result{}, fmt.Errorf("resolve contacts: %w", err)
	}

	links := make([]Link, 0, len(records))
	for _, rec := range records {
		if !rec.HasPlatform() {
			s.logger.Info("contact has no registered platforms", slog.String("email", rec.Email))
			continue
		}
		links = append(links, Compose(rec, itemTitle, page.PublicURL))
	}

	if err := s.writeMethods(ctx, pageID, links); err != nil {
		return Result{}, err
	}
	s.logger.Info("contact methods updated",
		slog.String("page_id", pageID), slog.String("title", itemTitle), slog.Int("links", len(links)))
	return Result{Outcome: OutcomeUpdated, PageID: pageID, Links: links}, nil
}

func (s *Service) writeMethods(ctx context.Context, pageID string, links []Link) error {
	files := make([]notionapi.File, 0, len(links))
	for _, link := range links {
		files = append(files, notionapi.File{
			Name:     link.Name,
			Type:     notionapi.FileTypeExternal,
			External: &notionapi.FileObject{URL: link.URL},
		})
	}

	resp, err := s.pages.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			methodsProperty: notionapi.FilesProperty{
				Type:  notionapi.PropertyTypeFiles,
				Files: files,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("update page %s: %w", pageID, err)
	}
	if resp == nil || resp.ID == "" {
		return fmt.Errorf("update page %s: %w", pageID, ErrWriteUnconfirmed)
	}
	return nil
}

func titleFromPage(page notionapi.Page) string {
	prop, ok := page.Properties[titleProperty]
	if !ok {
		return ""
	}
	title, ok := prop.(*notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 {
		return ""
	}
	return title.Title[0].PlainText
}
