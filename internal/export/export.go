// Package export writes a crawl result as CSV, JSON, a summary table or an
// iCalendar feed of the events.
//
// The CSV layout is one header row (ID, name, join, count, then one column
// per event title in ascending date order) followed by one row per member
// holding the numeric status codes.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pfrederiksen/connpass-attendance/internal/calendar"
	"github.com/pfrederiksen/connpass-attendance/internal/roster"
)

// DefaultFilename is where the CSV is written unless configured otherwise.
const DefaultFilename = "lasa-connpass.csv"

// Format specifies the output format
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatICS   Format = "ics"
)

// CalendarName is the X-WR-CALNAME of the ics rendering.
const CalendarName = "LASA connpass events"

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(name); f {
	case FormatCSV, FormatJSON, FormatTable, FormatICS:
		return f, nil
	}
	return "", fmt.Errorf("invalid format: %s (must be 'csv', 'json', 'table' or 'ics')", name)
}

// Write renders snap to w in the given format.
func Write(w io.Writer, snap *roster.Snapshot, format Format) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, snap)
	case FormatJSON:
		return WriteJSON(w, snap)
	case FormatTable:
		return WriteTable(w, snap)
	case FormatICS:
		return WriteICS(w, snap)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteCSV writes the attendance matrix as comma-separated values.
func WriteCSV(w io.Writer, snap *roster.Snapshot) error {
	cw := csv.NewWriter(w)

	header := []string{"ID", "name", "join", "count"}
	for _, e := range snap.Events {
		header = append(header, e.Title)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, m := range snap.Members {
		row, ok := snap.Attendance.Row(m.ID)
		if !ok {
			return fmt.Errorf("no attendance row for member %s", m.ID)
		}
		record := []string{m.ID, m.Name, m.JoinDate.String(), strconv.Itoa(m.SelfReportedCount)}
		for _, s := range row {
			record = append(record, strconv.Itoa(int(s)))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing member %s: %w", m.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the full snapshot as indented JSON.
func WriteJSON(w io.Writer, snap *roster.Snapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snap)
}

// WriteTable renders a per-member summary: self-reported visits next to the
// tallies derived from the matrix.
func WriteTable(w io.Writer, snap *roster.Snapshot) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Name", "Joined", "Reported", "Confirmed", "Organizer", "Cancelled"})

	for _, m := range snap.Members {
		tally := snap.Attendance.Tally(m.ID)
		t.AppendRow(table.Row{
			m.ID,
			m.Name,
			m.JoinDate.String(),
			m.SelfReportedCount,
			tally.Confirmed,
			tally.Organizer,
			tally.Cancelled,
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d members", len(snap.Members)), "", "", fmt.Sprintf("%d events", len(snap.Events))})

	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

// WriteICS writes the event timeline as iCalendar. DTSTAMP is the
// snapshot's UpdatedAt, or now when that is unset.
func WriteICS(w io.Writer, snap *roster.Snapshot) error {
	stamp, err := time.Parse(time.RFC3339, snap.UpdatedAt)
	if err != nil {
		stamp = time.Now()
	}
	_, err = io.WriteString(w, calendar.GenerateICS(snap, CalendarName, stamp))
	return err
}

// WriteFile writes snap to path. The data goes to a temporary file in the
// same directory first, so path is either fully written or left untouched.
func WriteFile(path string, snap *roster.Snapshot, format Format) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // nolint:errcheck

	if err := Write(tmp, snap, format); err != nil {
		tmp.Close() // nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
