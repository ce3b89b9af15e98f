package gmb

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"gmb-scraper/models"
)

// Fragment is the text view of one listing block that the field rules work on.
type Fragment struct {
	Name       *string
	RatingLine *string
	// Blocks holds the text of each direct child <div>, in document order.
	Blocks []string
}

// FragmentFromHTML builds a Fragment from the outer HTML of a listing container.
func FragmentFromHTML(fragment string) (Fragment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return Fragment{}, fmt.Errorf("parse listing html: %w", err)
	}

	root := doc.Find("body").Children().First()
	if root.Length() == 0 {
		return Fragment{}, fmt.Errorf("listing html has no root element")
	}

	var f Fragment
	if name := root.Find(nameSelector).First(); name.Length() > 0 {
		text := visibleText(name)
		f.Name = &text
	}
	if rating := root.Find(ratingLineSelector).First(); rating.Length() > 0 {
		text := visibleText(rating)
		f.RatingLine = &text
	}
	root.ChildrenFiltered("div").Each(func(_ int, s *goquery.Selection) {
		f.Blocks = append(f.Blocks, visibleText(s))
	})
	return f, nil
}

var blockElements = map[string]bool{
	"div": true, "p": true, "li": true, "ul": true, "ol": true, "tr": true, "table": true,
	"section": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// visibleText approximates rendered text: block elements and <br> break words
// apart, and whitespace runs collapse to one space.
func visibleText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "br":
				b.WriteByte(' ')
				return
			}
		}
		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte(' ')
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

const middleDot = "·"

var (
	ratingPattern  = regexp.MustCompile(`(\d\.\d)`)
	reviewsPattern = regexp.MustCompile(`\((\d{1,3}(?:,\d{3})*|\d+)\)`)
	yearsPattern   = regexp.MustCompile(`(?i)(\d+\+?)\+?\s+years in business`)
	phonePattern   = regexp.MustCompile(`(\d{5}\s\d{5}|\d{10}|[0-9\s]{8,})`)
	nonDigit       = regexp.MustCompile(`\D`)
)

var addressStopWords = []string{"Open", "Closes", "On-site services"}

type fieldRule struct {
	field string
	apply func(f Fragment, l *models.Listing)
}

// listingRules run in order. Phone comes before address because the address
// rule skips the block that holds the phone number.
var listingRules = []fieldRule{
	{"name", extractName},
	{"rating", extractRatingLine},
	{"years_in_business", extractYears},
	{"phone", extractPhone},
	{"address", extractAddress},
}

// ParseListing turns a fragment into a listing for keyword. A rule that fails
// leaves its own field nil and does not affect the others.
func ParseListing(f Fragment, keyword string) models.Listing {
	l := models.Listing{Keyword: keyword}
	for _, rule := range listingRules {
		applyRule(rule, f, &l)
	}
	return l
}

func applyRule(rule fieldRule, f Fragment, l *models.Listing) {
	defer func() {
		_ = recover()
	}()
	rule.apply(f, l)
}

func extractName(f Fragment, l *models.Listing) {
	if f.Name == nil {
		return
	}
	name := *f.Name
	l.Name = &name
}

func extractRatingLine(f Fragment, l *models.Listing) {
	if f.RatingLine == nil {
		return
	}
	parts := strings.Split(*f.RatingLine, middleDot)

	if m := ratingPattern.FindStringSubmatch(parts[0]); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			l.Rating = &v
		}
	}
	if m := reviewsPattern.FindStringSubmatch(parts[0]); m != nil {
		if v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
			l.ReviewCount = &v
		}
	}
	if len(parts) > 1 {
		if category := strings.TrimSpace(parts[1]); category != "" {
			l.Category = &category
		}
	}
}

// fullText joins the non-empty child blocks with single spaces.
func fullText(f Fragment) string {
	nonEmpty := make([]string, 0, len(f.Blocks))
	for _, b := range f.Blocks {
		if b != "" {
			nonEmpty = append(nonEmpty, b)
		}
	}
	return strings.Join(nonEmpty, " ")
}

func extractYears(f Fragment, l *models.Listing) {
	if m := yearsPattern.FindStringSubmatch(fullText(f)); m != nil {
		years := m[1]
		l.YearsInBusiness = &years
	}
}

func extractPhone(f Fragment, l *models.Listing) {
	match := phonePattern.FindString(fullText(f))
	if match == "" {
		return
	}
	// Only the first candidate is considered; too few digits means no phone.
	if len(nonDigit.ReplaceAllString(match, "")) < 8 {
		return
	}
	phone := strings.TrimSpace(match)
	l.Phone = &phone
}

func extractAddress(f Fragment, l *models.Listing) {
	for _, block := range f.Blocks {
		text := strings.TrimSpace(block)
		if skipAddressCandidate(text, l.Phone) {
			continue
		}
		if utf8.RuneCountInString(text) > 15 {
			l.Address = &text
			return
		}
	}
}

func skipAddressCandidate(text string, phone *string) bool {
	if text == "" {
		return true
	}
	if strings.Contains(strings.ToLower(text), "years in business") {
		return true
	}
	if phone != nil && strings.Contains(text, *phone) {
		return true
	}
	if strings.Contains(text, middleDot) {
		return true
	}
	for _, w := range addressStopWords {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
