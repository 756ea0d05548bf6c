// Package catalog builds the group's member roster and event timeline.
package catalog

import (
	"context"
	"fmt"

	"github.com/pfrederiksen/connpass-attendance/internal/extract"
	"github.com/pfrederiksen/connpass-attendance/internal/fetcher"
	"github.com/pfrederiksen/connpass-attendance/internal/logger"
	"github.com/pfrederiksen/connpass-attendance/internal/paginate"
	"github.com/pfrederiksen/connpass-attendance/internal/roster"
)

const (
	MemberListingURL = "https://laboratoryautomation.connpass.com/participation/"
	EventListingURL  = "https://laboratoryautomation.connpass.com/event/"
)

// Source names the listing URLs of one group. Each listing's "next" links
// are resolved against the listing URL itself.
type Source struct {
	MemberURL string
	EventURL  string
}

// DefaultSource is the LASA group.
var DefaultSource = Source{
	MemberURL: MemberListingURL,
	EventURL:  EventListingURL,
}

// Window restricts the event timeline to dates within [Since, Until].
// A zero bound is open.
type Window struct {
	Since roster.Date
	Until roster.Date
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d roster.Date) bool {
	if !w.Since.IsZero() && d.Before(w.Since) {
		return false
	}
	if !w.Until.IsZero() && d.After(w.Until) {
		return false
	}
	return true
}

// Builder crawls the listings of one group.
type Builder struct {
	fetcher fetcher.Fetcher
	source  Source
	policy  extract.Policy
}

// New creates a Builder using extract.DefaultPolicy.
func New(f fetcher.Fetcher, source Source) *Builder {
	return &Builder{
		fetcher: f,
		source:  source,
		policy:  extract.DefaultPolicy,
	}
}

// WithPolicy replaces the parsing policy.
func (b *Builder) WithPolicy(p extract.Policy) *Builder {
	b.policy = p
	return b
}

// BuildMembers returns the full roster in listing order.
func (b *Builder) BuildMembers(ctx context.Context) ([]roster.Member, error) {
	members, err := paginate.Paginate[roster.Member](ctx, b.fetcher, b.source.MemberURL, b.source.MemberURL, b.policy.Members)
	if err != nil {
		return nil, fmt.Errorf("building member roster: %w", err)
	}

	logger.Info("member roster built", logger.Fields{"members": len(members)})
	logger.SetGauge("roster.members", float64(len(members)))
	return members, nil
}

// BuildEvents returns the event timeline in ascending date order. The site
// lists events newest first.
func (b *Builder) BuildEvents(ctx context.Context, window Window) ([]roster.Event, error) {
	listed, err := paginate.Paginate[roster.Event](ctx, b.fetcher, b.source.EventURL, b.source.EventURL, b.policy.Events)
	if err != nil {
		return nil, fmt.Errorf("building event timeline: %w", err)
	}

	events := make([]roster.Event, 0, len(listed))
	for i := len(listed) - 1; i >= 0; i-- {
		if window.Contains(listed[i].Date) {
			events = append(events, listed[i])
		}
	}

	logger.Info("event timeline built", logger.Fields{
		"listed": len(listed),
		"events": len(events),
	})
	logger.SetGauge("roster.events", float64(len(events)))
	return events, nil
}
