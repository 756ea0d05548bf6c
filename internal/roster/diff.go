package roster

// StatusChange is one cell whose status differs between two runs.
type StatusChange struct {
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name"`
	EventTitle string `json:"event_title"`
	EventURL   string `json:"event_url"`
	Old        Status `json:"old"`
	New        Status `json:"new"`
}

// Changes lists what a run found that the previous run did not.
type Changes struct {
	NewMembers    []Member       `json:"new_members"`
	NewEvents     []Event        `json:"new_events"`
	StatusChanges []StatusChange `json:"status_changes"`
}

// Empty reports whether nothing changed.
func (c *Changes) Empty() bool {
	return len(c.NewMembers) == 0 && len(c.NewEvents) == 0 && len(c.StatusChanges) == 0
}

// Diff compares current against previous. Members are matched by ID and
// events by URL; results follow the current snapshot's roster and event order.
func Diff(previous, current *Snapshot) *Changes {
	result := &Changes{
		NewMembers:    make([]Member, 0),
		NewEvents:     make([]Event, 0),
		StatusChanges: make([]StatusChange, 0),
	}

	if previous == nil {
		previous = NewSnapshot()
	}

	knownMembers := make(map[string]bool, len(previous.Members))
	for _, m := range previous.Members {
		knownMembers[m.ID] = true
	}

	previousColumn := make(map[string]int, len(previous.Events))
	for i, e := range previous.Events {
		previousColumn[e.URL] = i
	}

	for _, e := range current.Events {
		if _, ok := previousColumn[e.URL]; !ok {
			result.NewEvents = append(result.NewEvents, e)
		}
	}

	for _, m := range current.Members {
		if !knownMembers[m.ID] {
			result.NewMembers = append(result.NewMembers, m)
			continue
		}
		if previous.Attendance == nil || current.Attendance == nil {
			continue
		}

		for i, e := range current.Events {
			j, ok := previousColumn[e.URL]
			if !ok {
				continue
			}
			oldStatus, okOld := previous.Attendance.Get(m.ID, j)
			newStatus, okNew := current.Attendance.Get(m.ID, i)
			if !okOld || !okNew || oldStatus == newStatus {
				continue
			}
			result.StatusChanges = append(result.StatusChanges, StatusChange{
				MemberID:   m.ID,
				MemberName: m.Name,
				EventTitle: e.Title,
				EventURL:   e.URL,
				Old:        oldStatus,
				New:        newStatus,
			})
		}
	}

	return result
}
