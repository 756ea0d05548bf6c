package attendance

// Report summarizes one aggregation run.
type Report struct {
	Events     int      `json:"events"`      // events whose participation page was read
	Skipped    []string `json:"skipped"`     // participation URLs that could not be fetched
	UnknownIDs []string `json:"unknown_ids"` // participant IDs missing from the roster, first-seen order
	Anonymous  int      `json:"anonymous"`   // rows without a profile link
	Overflows  int      `json:"overflows"`   // overflow listings crawled

	seen map[string]bool
}

func newReport() *Report {
	return &Report{
		Skipped:    make([]string, 0),
		UnknownIDs: make([]string, 0),
		seen:       make(map[string]bool),
	}
}

func (r *Report) unknown(id string) {
	if r.seen[id] {
		return
	}
	r.seen[id] = true
	r.UnknownIDs = append(r.UnknownIDs, id)
}
