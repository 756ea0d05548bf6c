package extract

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/connpass-attendance/internal/roster"
)

// Member parses one tr.GroupMemberProfile row of the member listing.
func (p Policy) Member(s *goquery.Selection) (roster.Member, error) {
	link, err := required(s.Find("p.GroupMemberDisplayName a").First(), "member display name link")
	if err != nil {
		return roster.Member{}, err
	}
	href, err := requiredAttr(link, "href", "member display name link")
	if err != nil {
		return roster.Member{}, err
	}
	id, err := p.MemberID(href)
	if err != nil {
		return roster.Member{}, err
	}

	countCell, err := required(s.Find("td.event").First(), "member event count")
	if err != nil {
		return roster.Member{}, err
	}
	count, err := p.VisitCount(text(countCell))
	if err != nil {
		return roster.Member{}, fmt.Errorf("member %s: %w", id, err)
	}

	lastCell, err := required(s.Find("td.date").First(), "member last attended date")
	if err != nil {
		return roster.Member{}, err
	}
	last, err := p.ParseDate(text(lastCell))
	if err != nil {
		return roster.Member{}, fmt.Errorf("member %s: %w", id, err)
	}

	joinCell, err := required(s.Find("td.join_date").First(), "member join date")
	if err != nil {
		return roster.Member{}, err
	}
	join, err := p.ParseDate(text(joinCell))
	if err != nil {
		return roster.Member{}, fmt.Errorf("member %s: %w", id, err)
	}

	return roster.Member{
		ID:                id,
		Name:              text(link),
		JoinDate:          join,
		SelfReportedCount: count,
		LastAttended:      last,
	}, nil
}

// Event parses one div.group_event_inner block of the event listing.
// The schedule paragraph lists registration deadlines before the event
// itself, so the last string is the event date.
func (p Policy) Event(s *goquery.Selection) (roster.Event, error) {
	schedule, err := required(s.Find("p.schedule").First(), "event schedule")
	if err != nil {
		return roster.Event{}, err
	}
	parts := strippedStrings(schedule)
	if len(parts) == 0 {
		return roster.Event{}, fmt.Errorf("%w: empty event schedule", ErrStructure)
	}
	date, err := p.ParseDate(parts[len(parts)-1])
	if err != nil {
		return roster.Event{}, err
	}

	link, err := required(s.Find("p.event_title a").First(), "event title link")
	if err != nil {
		return roster.Event{}, err
	}
	href, err := requiredAttr(link, "href", "event title link")
	if err != nil {
		return roster.Event{}, err
	}

	return roster.Event{
		Date:  date,
		Title: text(link),
		URL:   href,
	}, nil
}

// Members parses every member row on a listing page, in document order.
func (p Policy) Members(page *goquery.Selection) ([]roster.Member, error) {
	var members []roster.Member
	var err error
	page.Find("tr.GroupMemberProfile").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		var m roster.Member
		m, err = p.Member(row)
		if err != nil {
			return false
		}
		members = append(members, m)
		return true
	})
	return members, err
}

// Events parses every event block on a listing page, in document order.
func (p Policy) Events(page *goquery.Selection) ([]roster.Event, error) {
	var events []roster.Event
	var err error
	page.Find("div.group_event_inner").EachWithBreak(func(_ int, block *goquery.Selection) bool {
		var e roster.Event
		e, err = p.Event(block)
		if err != nil {
			return false
		}
		events = append(events, e)
		return true
	})
	return events, err
}

// ParseMember parses a member row with DefaultPolicy.
func ParseMember(s *goquery.Selection) (roster.Member, error) {
	return DefaultPolicy.Member(s)
}

// ParseEvent parses an event block with DefaultPolicy.
func ParseEvent(s *goquery.Selection) (roster.Event, error) {
	return DefaultPolicy.Event(s)
}
