package roster

import "fmt"

// Status is the attendance code recorded for one (member, event) cell.
type Status int

const (
	StatusNone         Status = 0
	StatusNotYetMember Status = -1
	StatusCancelled    Status = 1
	StatusConfirmed    Status = 2
	StatusOrganizer    Status = 10
)

// String returns a short name for the status.
func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusNotYetMember:
		return "not_yet_member"
	case StatusCancelled:
		return "cancelled"
	case StatusConfirmed:
		return "confirmed"
	case StatusOrganizer:
		return "organizer"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Valid reports whether s is one of the known codes.
func (s Status) Valid() bool {
	switch s {
	case StatusNone, StatusNotYetMember, StatusCancelled, StatusConfirmed, StatusOrganizer:
		return true
	}
	return false
}
