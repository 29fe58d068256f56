package diary

// Outcome is the terminal state of a rollover run.
type Outcome string

const (
	// OutcomeNoRecent means the diary database had no pages at all; nothing to
	// clone, treated as a benign no-op.
	OutcomeNoRecent Outcome = "no_recent"
	// OutcomeAlreadyExists means the most recent entry is dated today, so a
	// second run in the same day creates nothing.
	OutcomeAlreadyExists Outcome = "already_exists"
	// OutcomeCreated means a new entry was created for today.
	OutcomeCreated Outcome = "created"
)

// Result describes a completed rollover run.
type Result struct {
	Outcome Outcome
	PageID  string
}
