package roster

// Snapshot is the complete result of one crawl.
type Snapshot struct {
	Members    []Member `json:"members"`
	Events     []Event  `json:"events"`
	Attendance *Matrix  `json:"attendance"`
	UpdatedAt  string   `json:"updated_at"` // RFC3339 timestamp
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Members:    make([]Member, 0),
		Events:     make([]Event, 0),
		Attendance: NewMatrix(nil, 0),
	}
}

// CreateSnapshot bundles a crawl result.
func CreateSnapshot(members []Member, events []Event, attendance *Matrix, updatedAt string) *Snapshot {
	return &Snapshot{
		Members:    members,
		Events:     events,
		Attendance: attendance,
		UpdatedAt:  updatedAt,
	}
}
