package directory

// ContactRecord is one resolved (person, platform) row. A person with no
// registered platform yields a single row with empty platform fields.
type ContactRecord struct {
	Name         string
	Nickname     string
	Email        string
	PlatformName string
	BaseURL      string
	Identifier   string
}

// HasPlatform reports whether the record carries enough platform data to
// compose a chat link.
func (r ContactRecord) HasPlatform() bool {
	return r.PlatformName != "" && r.BaseURL != "" && r.Identifier != ""
}

// DisplayName returns the nickname when present, the name otherwise.
func (r ContactRecord) DisplayName() string {
	if r.Nickname != "" {
		return r.Nickname
	}
	return r.Name
}

// Recipient is a registered Telegram notification recipient.
type Recipient struct {
	ID     int
	Name   string
	ChatID int64
}
