package extract

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/connpass-attendance/internal/roster"
)

// Participant is one linked row of a participation table.
type Participant struct {
	ID     string
	Status roster.Status
}

// Rows is the result of reading one participation table section.
type Rows struct {
	Participants []Participant
	Anonymous    int // rows without a profile link (withdrawn or hidden users)
}

// ConfirmedTable is one div.participation_table_area on a participation page.
// Exactly one of Table, Empty or OverflowURL is set.
type ConfirmedTable struct {
	Table       *goquery.Selection
	Empty       bool
	OverflowURL string
}

// Participants reads every p.display_name in section and tags linked rows
// with status.
func (p Policy) Participants(section *goquery.Selection, status roster.Status) (Rows, error) {
	var rows Rows
	var err error
	section.Find("p.display_name").EachWithBreak(func(_ int, name *goquery.Selection) bool {
		link := name.Find("a").First()
		if link.Length() == 0 {
			rows.Anonymous++
			return true
		}

		var href, id string
		href, err = requiredAttr(link, "href", "participant link")
		if err != nil {
			return false
		}
		id, err = p.MemberID(href)
		if err != nil {
			return false
		}
		rows.Participants = append(rows.Participants, Participant{ID: id, Status: status})
		return true
	})
	return rows, err
}

// CancelledTable returns the cancelled/withdrawn table, if the page has one.
func CancelledTable(page *goquery.Selection) (*goquery.Selection, bool, error) {
	area := page.Find("div.cancelled_table_area").First()
	if area.Length() == 0 {
		return nil, false, nil
	}
	table, err := required(area.Find("table").First(), "cancelled table")
	if err != nil {
		return nil, false, err
	}
	return table, true, nil
}

// OrganizerSection returns the organizer/concerned-parties area.
func OrganizerSection(page *goquery.Selection) (*goquery.Selection, error) {
	return required(page.Find("div.concerned_area").First(), "organizer area")
}

// ConfirmedTables classifies every confirmed-participant table on a
// participation page. When the last body row has a single cell it is a
// marker rather than a participant: either the no-applicants sentinel or a
// link to an overflow listing holding the full participant list.
func (p Policy) ConfirmedTables(page *goquery.Selection) ([]ConfirmedTable, error) {
	var tables []ConfirmedTable
	var err error
	page.Find("div.participation_table_area").EachWithBreak(func(_ int, area *goquery.Selection) bool {
		var t ConfirmedTable
		t, err = p.classifyConfirmed(area)
		if err != nil {
			return false
		}
		tables = append(tables, t)
		return true
	})
	return tables, err
}

func (p Policy) classifyConfirmed(area *goquery.Selection) (ConfirmedTable, error) {
	table, err := required(area.Find("table").First(), "participation table")
	if err != nil {
		return ConfirmedTable{}, err
	}
	body, err := required(table.Find("tbody").First(), "participation table body")
	if err != nil {
		return ConfirmedTable{}, err
	}
	last, err := required(body.Find("tr").Last(), "participation table row")
	if err != nil {
		return ConfirmedTable{}, err
	}

	cells := last.Find("td")
	if cells.Length() != 1 {
		return ConfirmedTable{Table: table}, nil
	}
	if text(cells) == p.NoParticipants {
		return ConfirmedTable{Empty: true}, nil
	}

	link, err := required(cells.Find("a").First(), "participant overflow link")
	if err != nil {
		return ConfirmedTable{}, err
	}
	href, err := requiredAttr(link, "href", "participant overflow link")
	if err != nil {
		return ConfirmedTable{}, err
	}
	return ConfirmedTable{OverflowURL: href}, nil
}

// OverflowTable returns the participant table of an overflow listing page.
func OverflowTable(page *goquery.Selection) (*goquery.Selection, error) {
	area, err := required(page.Find("div.participation_table_area").First(), "overflow participation area")
	if err != nil {
		return nil, err
	}
	return required(area.Find("table").First(), "overflow participation table")
}

// ParseParticipants reads a table section with DefaultPolicy.
func ParseParticipants(section *goquery.Selection, status roster.Status) (Rows, error) {
	return DefaultPolicy.Participants(section, status)
}
