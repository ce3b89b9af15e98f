package models

import "strings"

// ExportColumns is the header row of every tabular export.
var ExportColumns = []string{
	"Keyword",
	"Name",
	"Rating",
	"Number of Reviews",
	"Category",
	"Years in Business",
	"Address",
	"Phone Number",
}

// Listing is one business parsed from a results fragment.
// Optional fields are nil when the fragment did not yield them.
type Listing struct {
	Keyword         string
	Name            *string
	Rating          *float64
	ReviewCount     *int
	Category        *string
	YearsInBusiness *string
	Address         *string
	Phone           *string
}

// HasName reports whether the listing carries a non-blank name.
func (l Listing) HasName() bool {
	return l.Name != nil && strings.TrimSpace(*l.Name) != ""
}

// Outcome is how a keyword's browsing session concluded.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeSearchBoxMissing
	OutcomeNoMoreBusinesses
	OutcomeCaptchaTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeSearchBoxMissing:
		return "search_box_missing"
	case OutcomeNoMoreBusinesses:
		return "no_more_businesses"
	case OutcomeCaptchaTimeout:
		return "captcha_timeout"
	default:
		return "unknown"
	}
}

type ScrapeResult struct {
	Keyword  string
	Outcome  Outcome
	Pages    int
	Listings []Listing
}
