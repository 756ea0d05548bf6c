package attendance

import (
	"fmt"

	"github.com/pfrederiksen/connpass-attendance/internal/roster"
)

// Section is one participant table of a participation page.
type Section int

const (
	SectionCancelled Section = iota
	SectionOrganizer
	SectionConfirmed
)

// DefaultPrecedence applies sections so that later ones win: Confirmed over
// Organizer over Cancelled.
var DefaultPrecedence = []Section{SectionCancelled, SectionOrganizer, SectionConfirmed}

// Status returns the code written for members listed in the section.
func (s Section) Status() roster.Status {
	switch s {
	case SectionCancelled:
		return roster.StatusCancelled
	case SectionOrganizer:
		return roster.StatusOrganizer
	case SectionConfirmed:
		return roster.StatusConfirmed
	}
	return roster.StatusNone
}

func (s Section) String() string {
	switch s {
	case SectionCancelled:
		return "cancelled"
	case SectionOrganizer:
		return "organizer"
	case SectionConfirmed:
		return "confirmed"
	}
	return fmt.Sprintf("section(%d)", int(s))
}

// ParseSection maps a section name back to a Section.
func ParseSection(name string) (Section, error) {
	for _, s := range DefaultPrecedence {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown section: %s", name)
}

// ParsePrecedence maps section names to an application order. Each section
// may appear at most once; no names yields DefaultPrecedence.
func ParsePrecedence(names []string) ([]Section, error) {
	if len(names) == 0 {
		return DefaultPrecedence, nil
	}
	order := make([]Section, 0, len(names))
	seen := make(map[Section]bool, len(names))
	for _, name := range names {
		s, err := ParseSection(name)
		if err != nil {
			return nil, err
		}
		if seen[s] {
			return nil, fmt.Errorf("section %s listed more than once", s)
		}
		seen[s] = true
		order = append(order, s)
	}
	return order, nil
}
