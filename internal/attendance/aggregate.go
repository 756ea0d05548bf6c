package attendance

import (
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/connpass-attendance/internal/extract"
	"github.com/pfrederiksen/connpass-attendance/internal/fetcher"
	"github.com/pfrederiksen/connpass-attendance/internal/logger"
	"github.com/pfrederiksen/connpass-attendance/internal/paginate"
	"github.com/pfrederiksen/connpass-attendance/internal/roster"
)

// Aggregator builds the attendance matrix. It is not safe for concurrent use.
type Aggregator struct {
	fetcher    fetcher.Fetcher
	policy     extract.Policy
	precedence []Section
}

// New creates an Aggregator with DefaultPrecedence and extract.DefaultPolicy.
func New(f fetcher.Fetcher) *Aggregator {
	return &Aggregator{
		fetcher:    f,
		policy:     extract.DefaultPolicy,
		precedence: DefaultPrecedence,
	}
}

// WithPrecedence sets the order in which sections are applied. Later
// sections overwrite earlier ones. Repeats of a section are dropped so each
// table is read once per event.
func (a *Aggregator) WithPrecedence(order ...Section) *Aggregator {
	a.precedence = make([]Section, 0, len(order))
	seen := make(map[Section]bool, len(order))
	for _, s := range order {
		if seen[s] {
			continue
		}
		seen[s] = true
		a.precedence = append(a.precedence, s)
	}
	return a
}

// WithPolicy replaces the parsing policy.
func (a *Aggregator) WithPolicy(p extract.Policy) *Aggregator {
	a.policy = p
	return a
}

// Aggregate crawls the participation page of every event and returns the
// resulting matrix. events must be in ascending date order. Structural parse
// failures abort the run; fetch failures only skip the affected event.
func (a *Aggregator) Aggregate(ctx context.Context, members []roster.Member, events []roster.Event) (*roster.Matrix, *Report, error) {
	matrix := roster.NewMatrix(members, len(events))
	report := newReport()

	for i, evt := range events {
		markIneligible(matrix, members, evt, i)

		url := evt.ParticipationURL()
		doc, err := a.fetcher.Fetch(ctx, url)
		if err != nil {
			if errors.Is(err, fetcher.ErrFetch) {
				logger.Warn("participation page unavailable, skipping event", logger.Fields{
					"event": evt.Title,
					"url":   url,
				})
				logger.IncrCounter("attendance.events_skipped")
				report.Skipped = append(report.Skipped, url)
				continue
			}
			return nil, report, err
		}

		for _, section := range a.precedence {
			rows, err := a.collect(ctx, doc.Selection, section, report)
			if err != nil {
				return nil, report, fmt.Errorf("event %q %s table: %w", evt.Title, section, err)
			}
			apply(matrix, i, evt, rows, report)
		}
		report.Events++
	}

	return matrix, report, nil
}

// markIneligible marks every member who joined after evt.
func markIneligible(matrix *roster.Matrix, members []roster.Member, evt roster.Event, column int) {
	for _, m := range members {
		if !m.Eligible(evt) {
			matrix.Set(m.ID, column, roster.StatusNotYetMember)
		}
	}
}

// collect reads one section of a participation page.
func (a *Aggregator) collect(ctx context.Context, page *goquery.Selection, section Section, report *Report) (extract.Rows, error) {
	status := section.Status()

	switch section {
	case SectionCancelled:
		table, ok, err := extract.CancelledTable(page)
		if err != nil || !ok {
			return extract.Rows{}, err
		}
		return a.policy.Participants(table, status)

	case SectionOrganizer:
		area, err := extract.OrganizerSection(page)
		if err != nil {
			return extract.Rows{}, err
		}
		return a.policy.Participants(area, status)

	case SectionConfirmed:
		tables, err := a.policy.ConfirmedTables(page)
		if err != nil {
			return extract.Rows{}, err
		}

		var all extract.Rows
		for _, t := range tables {
			var rows extract.Rows
			switch {
			case t.Empty:
				continue
			case t.OverflowURL != "":
				report.Overflows++
				rows, err = a.overflow(ctx, t.OverflowURL, status)
			default:
				rows, err = a.policy.Participants(t.Table, status)
			}
			if err != nil {
				return extract.Rows{}, err
			}
			all.Participants = append(all.Participants, rows.Participants...)
			all.Anonymous += rows.Anonymous
		}
		return all, nil
	}

	return extract.Rows{}, fmt.Errorf("unknown section: %s", section)
}

// overflow crawls a confirmed-participant listing that did not fit on the
// participation page.
func (a *Aggregator) overflow(ctx context.Context, url string, status roster.Status) (extract.Rows, error) {
	pages, err := paginate.Paginate[extract.Rows](ctx, a.fetcher, url, url, func(page *goquery.Selection) ([]extract.Rows, error) {
		table, err := extract.OverflowTable(page)
		if err != nil {
			return nil, err
		}
		rows, err := a.policy.Participants(table, status)
		if err != nil {
			return nil, err
		}
		return []extract.Rows{rows}, nil
	})
	if err != nil {
		return extract.Rows{}, err
	}

	var all extract.Rows
	for _, rows := range pages {
		all.Participants = append(all.Participants, rows.Participants...)
		all.Anonymous += rows.Anonymous
	}
	logger.Debug("overflow listing crawled", logger.Fields{
		"url":          url,
		"pages":        len(pages),
		"participants": len(all.Participants),
	})
	return all, nil
}

// apply writes rows into column. Unknown IDs are dropped.
func apply(matrix *roster.Matrix, column int, evt roster.Event, rows extract.Rows, report *Report) {
	for _, p := range rows.Participants {
		if matrix.Set(p.ID, column, p.Status) {
			continue
		}
		logger.Warn("unsubscribed member", logger.Fields{
			"id":     p.ID,
			"event":  evt.Title,
			"status": p.Status.String(),
		})
		logger.IncrCounter("attendance.unknown_participants")
		report.unknown(p.ID)
	}

	if rows.Anonymous > 0 {
		logger.Info("withdrawn member rows skipped", logger.Fields{
			"event": evt.Title,
			"rows":  rows.Anonymous,
		})
		logger.IncrCounter("attendance.anonymous_rows")
		report.Anonymous += rows.Anonymous
	}
}
