package roster

import (
	"encoding/json"
	"fmt"
)

// Matrix maps member IDs to one Status per event, in event order.
// Rows are created once from the roster and never grow, shrink or reorder.
type Matrix struct {
	rows   map[string][]Status
	events int
}

// NewMatrix creates a matrix with a StatusNone row for every member.
func NewMatrix(members []Member, events int) *Matrix {
	m := &Matrix{
		rows:   make(map[string][]Status, len(members)),
		events: events,
	}
	for _, member := range members {
		m.rows[member.ID] = make([]Status, events)
	}
	return m
}

// Events returns the number of event columns.
func (m *Matrix) Events() int {
	return m.events
}

// Members returns the number of member rows.
func (m *Matrix) Members() int {
	return len(m.rows)
}

// Has reports whether id has a row.
func (m *Matrix) Has(id string) bool {
	_, ok := m.rows[id]
	return ok
}

// Set records status for (id, event). It returns false and leaves the matrix
// untouched when id is not on the roster or event is out of range.
func (m *Matrix) Set(id string, event int, status Status) bool {
	row, ok := m.rows[id]
	if !ok || event < 0 || event >= len(row) {
		return false
	}
	row[event] = status
	return true
}

// Get returns the status for (id, event).
func (m *Matrix) Get(id string, event int) (Status, bool) {
	row, ok := m.rows[id]
	if !ok || event < 0 || event >= len(row) {
		return StatusNone, false
	}
	return row[event], true
}

// Row returns a copy of the row for id.
func (m *Matrix) Row(id string) ([]Status, bool) {
	row, ok := m.rows[id]
	if !ok {
		return nil, false
	}
	out := make([]Status, len(row))
	copy(out, row)
	return out, true
}

// Rows returns a deep copy of every row keyed by member ID.
func (m *Matrix) Rows() map[string][]Status {
	out := make(map[string][]Status, len(m.rows))
	for id := range m.rows {
		out[id], _ = m.Row(id)
	}
	return out
}

// Tally counts a member's cells per status.
type Tally struct {
	Confirmed    int `json:"confirmed"`
	Organizer    int `json:"organizer"`
	Cancelled    int `json:"cancelled"`
	NotYetMember int `json:"not_yet_member"`
}

// Tally summarizes the row for id. Unknown IDs yield an empty Tally.
func (m *Matrix) Tally(id string) Tally {
	var t Tally
	for _, s := range m.rows[id] {
		t.add(s)
	}
	return t
}

// EventTally summarizes one event column across all members.
func (m *Matrix) EventTally(event int) Tally {
	var t Tally
	if event < 0 || event >= m.events {
		return t
	}
	for _, row := range m.rows {
		t.add(row[event])
	}
	return t
}

func (t *Tally) add(s Status) {
	switch s {
	case StatusConfirmed:
		t.Confirmed++
	case StatusOrganizer:
		t.Organizer++
	case StatusCancelled:
		t.Cancelled++
	case StatusNotYetMember:
		t.NotYetMember++
	}
}

// MarshalJSON encodes the matrix as an object of member ID to status array.
func (m *Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.rows)
}

// UnmarshalJSON decodes a matrix written by MarshalJSON. Every row must
// have the same length.
func (m *Matrix) UnmarshalJSON(data []byte) error {
	var rows map[string][]Status
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}

	events := -1
	for id, row := range rows {
		if events == -1 {
			events = len(row)
			continue
		}
		if len(row) != events {
			return fmt.Errorf("matrix row %s has %d cells, want %d", id, len(row), events)
		}
	}
	if events == -1 {
		events = 0
	}
	if rows == nil {
		rows = make(map[string][]Status)
	}

	m.rows = rows
	m.events = events
	return nil
}
