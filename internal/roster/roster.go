package roster

// Member is one group member as listed on the member roster.
type Member struct {
	ID                string `json:"id"` // profile URL slug
	Name              string `json:"name"`
	JoinDate          Date   `json:"join_date"`
	SelfReportedCount int    `json:"self_reported_count"` // platform tally, informational only
	LastAttended      Date   `json:"last_attended"`
}

// Event is one group event as listed on the event timeline.
type Event struct {
	Date  Date   `json:"date"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ParticipationURL returns the URL of the event's participation page.
func (e Event) ParticipationURL() string {
	return e.URL + "participation/"
}

// Eligible reports whether m was already a member on the day of e.
// A member with no recorded join date is treated as eligible.
func (m Member) Eligible(e Event) bool {
	return !m.JoinDate.After(e.Date)
}
