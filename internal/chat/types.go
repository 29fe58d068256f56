package chat

import (
	"errors"

	"github.com/jomei/notionapi"
)

// WebhookSource identifies the Notion automation that fired the webhook.
type WebhookSource struct {
	Type         string `json:"type"`
	AutomationID string `json:"automation_id"`
	ActionID     string `json:"action_id"`
	EventID      string `json:"event_id"`
	Attempt      int    `json:"attempt"`
}

// WebhookPayload is the inbound page-change event body.
type WebhookPayload struct {
	Source WebhookSource  `json:"source"`
	Data   notionapi.Page `json:"data"`
}

// Outcome is the terminal state of a contact sync run.
type Outcome string

const (
	// OutcomeUpdated means the contact methods were replaced with freshly
	// composed links.
	OutcomeUpdated Outcome = "updated"
	// OutcomeCleared means the tagged people list was explicitly empty and the
	// contact methods were overwritten with an empty list.
	OutcomeCleared Outcome = "cleared"
	// OutcomeSkipped means people were tagged but none had a resolvable email,
	// so no write was issued at all.
	OutcomeSkipped Outcome = "skipped"
)

// Result describes a completed contact sync run.
type Result struct {
	Outcome Outcome
	PageID  string
	Links   []Link
}

var (
	// ErrInvalidPayload marks a webhook body missing the expected page fields.
	ErrInvalidPayload = errors.New("invalid webhook payload")
	// ErrWriteUnconfirmed marks a page update whose response did not confirm
	// the write.
	ErrWriteUnconfirmed = errors.New("page update was not confirmed")
)
