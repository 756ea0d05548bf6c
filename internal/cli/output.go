package cli

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pfrederiksen/connpass-attendance/internal/attendance"
	"github.com/pfrederiksen/connpass-attendance/internal/logger"
	"github.com/pfrederiksen/connpass-attendance/internal/roster"
)

// Summary describes a finished crawl.
type Summary struct {
	Members    int                `json:"members"`
	Events     int                `json:"events"`
	Skipped    []string           `json:"skipped"`
	UnknownIDs []string           `json:"unknown_ids"`
	Anonymous  int                `json:"anonymous"`
	Overflows  int                `json:"overflows"`
	Requests   int64              `json:"requests"`
	Failures   int64              `json:"failures"`
	Latency    logger.TimingStats `json:"latency"`
	Elapsed    time.Duration      `json:"elapsed"`
	Counters   map[string]int64   `json:"counters,omitempty"`
}

// NewSummary collects the counts of one run.
func NewSummary(snapshot *roster.Snapshot, report *attendance.Report, metrics logger.Snapshot, elapsed time.Duration) *Summary {
	return &Summary{
		Members:    len(snapshot.Members),
		Events:     len(snapshot.Events),
		Skipped:    report.Skipped,
		UnknownIDs: report.UnknownIDs,
		Anonymous:  report.Anonymous,
		Overflows:  report.Overflows,
		Requests:   metrics.Counters["fetch.requests"],
		Failures:   metrics.Counters["fetch.failures"],
		Latency:    metrics.Timings["fetch.latency"],
		Elapsed:    elapsed,
		Counters:   metrics.Counters,
	}
}

// Fields returns the summary as log fields.
func (s *Summary) Fields() logger.Fields {
	return logger.Fields{
		"members":     s.Members,
		"events":      s.Events,
		"skipped":     len(s.Skipped),
		"unknown_ids": len(s.UnknownIDs),
		"anonymous":   s.Anonymous,
		"overflows":   s.Overflows,
		"requests":    s.Requests,
		"failures":    s.Failures,
		"elapsed_ms":  s.Elapsed.Milliseconds(),
	}
}

// WriteSummary prints the summary as human-readable text
func WriteSummary(w io.Writer, s *Summary) {
	fmt.Fprintf(w, "\nMembers: %d\n", s.Members)
	fmt.Fprintf(w, "Events: %d\n", s.Events)
	fmt.Fprintf(w, "Requests: %d (%d failed, avg %s)\n", s.Requests, s.Failures, s.Latency.Average.Round(time.Millisecond))
	if s.Overflows > 0 {
		fmt.Fprintf(w, "Overflow listings: %d\n", s.Overflows)
	}
	if s.Anonymous > 0 {
		fmt.Fprintf(w, "Anonymized rows: %d\n", s.Anonymous)
	}
	if len(s.UnknownIDs) > 0 {
		fmt.Fprintf(w, "Unknown participants (%d):\n", len(s.UnknownIDs))
		for _, id := range s.UnknownIDs {
			fmt.Fprintf(w, "  %s\n", id)
		}
	}
	if len(s.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped events (%d):\n", len(s.Skipped))
		for _, url := range s.Skipped {
			fmt.Fprintf(w, "  %s\n", url)
		}
	}
	fmt.Fprintf(w, "Elapsed: %s\n", s.Elapsed.Round(time.Second))
}

// WriteChanges prints what changed since the previous run.
func WriteChanges(w io.Writer, changes *roster.Changes) error {
	if changes.Empty() {
		_, err := fmt.Fprintln(w, "No changes since last run.")
		return err
	}

	if len(changes.NewMembers) > 0 {
		fmt.Fprintf(w, "\nNew members (%d):\n", len(changes.NewMembers))
		for _, m := range changes.NewMembers {
			fmt.Fprintf(w, "  NEW: %s (%s) joined %s\n", m.Name, m.ID, joinText(m.JoinDate))
		}
	}

	if len(changes.NewEvents) > 0 {
		fmt.Fprintf(w, "\nNew events (%d):\n", len(changes.NewEvents))
		for _, e := range changes.NewEvents {
			fmt.Fprintf(w, "  NEW: %s %s\n", e.Date, e.Title)
			fmt.Fprintf(w, "       %s\n", e.URL)
		}
	}

	if len(changes.StatusChanges) > 0 {
		// Group by event so each event is printed once
		byEvent := make(map[string][]roster.StatusChange)
		titles := make(map[string]string)
		for _, c := range changes.StatusChanges {
			byEvent[c.EventURL] = append(byEvent[c.EventURL], c)
			titles[c.EventURL] = c.EventTitle
		}
		urls := make([]string, 0, len(byEvent))
		for url := range byEvent {
			urls = append(urls, url)
		}
		sort.Strings(urls)

		fmt.Fprintf(w, "\nStatus changes (%d):\n", len(changes.StatusChanges))
		for _, url := range urls {
			fmt.Fprintf(w, "  %s:\n", titles[url])
			for _, c := range byEvent[url] {
				fmt.Fprintf(w, "    %s (%s): %s -> %s\n", c.MemberName, c.MemberID, c.Old, c.New)
			}
		}
	}

	_, err := fmt.Fprintf(w, "\nTotal: %d new members, %d new events, %d status changes\n",
		len(changes.NewMembers), len(changes.NewEvents), len(changes.StatusChanges))
	return err
}

func joinText(d roster.Date) string {
	if d.IsZero() {
		return "(unknown)"
	}
	return d.String()
}
