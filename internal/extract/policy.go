package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/pfrederiksen/connpass-attendance/internal/roster"
)

var (
	// ErrStructure reports an element or attribute missing from a page.
	ErrStructure = errors.New("unexpected page structure")
	// ErrMalformed reports field text that does not match the parsing policy.
	ErrMalformed = errors.New("malformed field")
)

// Policy holds the textual patterns the extractors depend on.
type Policy struct {
	// ProfileURL matches a user profile link; group 1 is the member ID.
	ProfileURL *regexp.Regexp
	// Count matches the "N 回" visit tally; group 1 is the number.
	Count *regexp.Regexp
	// Date matches a YYYY/MM/DD prefix; group 1 is the date, the rest is ignored.
	Date *regexp.Regexp
	// NoParticipants is the text of the single-cell row shown when an event
	// has no applicants.
	NoParticipants string
}

// DefaultPolicy matches the Japanese-locale connpass pages.
var DefaultPolicy = Policy{
	ProfileURL:     regexp.MustCompile(`^https?://connpass.com/user/([^/]+)/.*$`),
	Count:          regexp.MustCompile(`^(\d+) 回$`),
	Date:           regexp.MustCompile(`^(\d{4}/\d{2}/\d{2}).*$`),
	NoParticipants: "イベント申込者はいません。",
}

// MemberID extracts the member ID from a profile URL.
func (p Policy) MemberID(href string) (string, error) {
	m := p.ProfileURL.FindStringSubmatch(href)
	if m == nil {
		return "", fmt.Errorf("%w: profile URL %q", ErrMalformed, href)
	}
	return m[1], nil
}

// VisitCount parses the self-reported attendance tally.
func (p Policy) VisitCount(text string) (int, error) {
	m := p.Count.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("%w: visit count %q", ErrMalformed, text)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: visit count %q: %v", ErrMalformed, text, err)
	}
	return n, nil
}

// ParseDate parses a date with optional trailing text. Empty text yields the
// zero Date.
func (p Policy) ParseDate(text string) (roster.Date, error) {
	if text == "" {
		return roster.Date{}, nil
	}
	m := p.Date.FindStringSubmatch(text)
	if m == nil {
		return roster.Date{}, fmt.Errorf("%w: date %q", ErrMalformed, text)
	}
	d, err := roster.ParseDate(m[1])
	if err != nil {
		return roster.Date{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return d, nil
}
