package chat

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/notiongram/notiongram/internal/directory"
)

// Link is one outbound chat deep link written back onto the page.
type Link struct {
	Name string
	URL  string
}

// Compose builds the deep link for one resolved contact record. It is pure:
// identical inputs always yield identical output, so retried webhook
// deliveries rewrite the same link set.
func Compose(rec directory.ContactRecord, itemTitle, pageURL string) Link {
	name := rec.DisplayName()

	titled := ""
	if itemTitle != "" {
		titled = fmt.Sprintf(" titled %q", itemTitle)
	}
	message := fmt.Sprintf("Hey %s, I'm interested in this item%s.\n\nLink: %s", name, titled, pageURL)

	return Link{
		Name: name + "@" + rec.PlatformName,
		URL:  rec.BaseURL + "/" + rec.Identifier + "?text=" + encodeQueryComponent(message),
	}
}

// encodeQueryComponent percent-encodes s for use as a query parameter value,
// using %20 for spaces rather than "+".
func encodeQueryComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
