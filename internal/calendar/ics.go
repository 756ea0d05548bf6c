// Package calendar renders the group's event timeline as iCalendar.
package calendar

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pfrederiksen/connpass-attendance/internal/roster"
)

const prodID = "-//connpass-attendance//connpass-attendance//EN"

// GenerateICS generates an iCalendar (.ics) document with one all-day
// VEVENT per dated event. The description carries the attendance tally.
// An empty name omits X-WR-CALNAME.
func GenerateICS(snapshot *roster.Snapshot, name string, now time.Time) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString(fmt.Sprintf("PRODID:%s\r\n", prodID))
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if name != "" {
		ics.WriteString(fmt.Sprintf("X-WR-CALNAME:%s\r\n", escapeICS(name)))
	}

	stamp := formatICSTime(now)
	for i, evt := range snapshot.Events {
		if evt.Date.IsZero() {
			continue
		}
		writeEvent(&ics, evt, snapshot.Attendance.EventTally(i), stamp)
	}

	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

func writeEvent(ics *strings.Builder, evt roster.Event, tally roster.Tally, stamp string) {
	ics.WriteString("BEGIN:VEVENT\r\n")
	ics.WriteString(fmt.Sprintf("UID:%s\r\n", eventUID(evt.URL)))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", stamp))

	start := evt.Date.Time()
	ics.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", formatICSDate(start)))
	ics.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", formatICSDate(start.AddDate(0, 0, 1))))

	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(evt.Title)))

	description := fmt.Sprintf("Organizers: %d\nConfirmed: %d\nCancelled: %d\n\n%s",
		tally.Organizer, tally.Confirmed, tally.Cancelled, evt.URL)
	ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(description)))

	if evt.URL != "" {
		ics.WriteString(fmt.Sprintf("URL:%s\r\n", evt.URL))
	}
	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:TRANSPARENT\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// eventUID turns https://host/event/123/ into event-123@host.
func eventUID(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.NewReplacer("/", "-", ":", "-").Replace(strings.Trim(raw, "/")) + "@connpass.com"
	}
	return strings.ReplaceAll(strings.Trim(u.Path, "/"), "/", "-") + "@" + u.Host
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func formatICSDate(t time.Time) string {
	return t.Format("20060102")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// RFC 5545 text escaping
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
