package attendance

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pfrederiksen/connpass-attendance/internal/connpasstest"
	"github.com/pfrederiksen/connpass-attendance/internal/extract"
	"github.com/pfrederiksen/connpass-attendance/internal/fetcher"
	"github.com/pfrederiksen/connpass-attendance/internal/limiter"
	"github.com/pfrederiksen/connpass-attendance/internal/roster"
)

type fixture struct {
	site    *connpasstest.Site
	members []roster.Member
	events  []roster.Event
}

// newFixture serves the two-event, three-member group used across tests:
// E1 on 2020/01/01 and E2 on 2020/02/01; A joined 2019/12/01, B joined
// 2020/01/15 and C joined 2019/06/01.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	site := connpasstest.NewSite()
	t.Cleanup(site.Close)

	return &fixture{
		site: site,
		members: []roster.Member{
			{ID: "A", Name: "A", JoinDate: roster.NewDate(2019, time.December, 1)},
			{ID: "B", Name: "B", JoinDate: roster.NewDate(2020, time.January, 15)},
			{ID: "C", Name: "C", JoinDate: roster.NewDate(2019, time.June, 1)},
		},
		events: []roster.Event{
			{Date: roster.NewDate(2020, time.January, 1), Title: "E1", URL: site.URL() + "/event/1/"},
			{Date: roster.NewDate(2020, time.February, 1), Title: "E2", URL: site.URL() + "/event/2/"},
		},
	}
}

func (f *fixture) participation(event int, p connpasstest.Participation) {
	f.site.Page(participationURI(event), connpasstest.ParticipationPage(p))
}

func (f *fixture) aggregate(t *testing.T, a *Aggregator) (map[string][]roster.Status, *Report) {
	t.Helper()
	matrix, report, err := a.Aggregate(context.Background(), f.members, f.events)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	for _, m := range f.members {
		row, ok := matrix.Row(m.ID)
		if !ok || len(row) != len(f.events) {
			t.Fatalf("row for %s = %v, want %d cells", m.ID, row, len(f.events))
		}
	}
	if matrix.Members() != len(f.members) {
		t.Fatalf("matrix has %d rows, want %d", matrix.Members(), len(f.members))
	}
	return matrix.Rows(), report
}

func newAggregator() *Aggregator {
	return New(fetcher.New(fetcher.Options{Limiter: limiter.Nop()}))
}

func participationURI(event int) string {
	return "/event/" + string(rune('0'+event)) + "/participation/"
}

func TestAggregate_EndToEnd(t *testing.T) {
	f := newFixture(t)
	f.participation(1, connpasstest.Participation{
		Cancelled:  []string{"C"},
		Organizers: []string{"A"},
		Confirmed:  []connpasstest.Confirmed{{Empty: true}},
	})
	f.participation(2, connpasstest.Participation{
		Confirmed: []connpasstest.Confirmed{{IDs: []string{"B", "C"}}},
	})

	got, report := f.aggregate(t, newAggregator())

	want := map[string][]roster.Status{
		"A": {roster.StatusOrganizer, roster.StatusNone},
		"B": {roster.StatusNotYetMember, roster.StatusConfirmed},
		"C": {roster.StatusCancelled, roster.StatusConfirmed},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("matrix mismatch (-want +got):\n%s", diff)
	}
	if report.Events != 2 || len(report.Skipped) != 0 {
		t.Errorf("report = %+v, want 2 events and none skipped", report)
	}
}

func TestAggregate_NotYetMemberWithoutEvidence(t *testing.T) {
	f := newFixture(t)
	f.participation(1, connpasstest.Participation{Confirmed: []connpasstest.Confirmed{{IDs: []string{"A"}}}})
	f.participation(2, connpasstest.Participation{Confirmed: []connpasstest.Confirmed{{Empty: true}}})

	got, _ := f.aggregate(t, newAggregator())

	if got["B"][0] != roster.StatusNotYetMember {
		t.Errorf("B at E1 = %v, want not_yet_member", got["B"][0])
	}
	if got["B"][1] != roster.StatusNone {
		t.Errorf("B at E2 = %v, want none", got["B"][1])
	}
}

func TestAggregate_ParticipationOverridesJoinDate(t *testing.T) {
	f := newFixture(t)
	f.participation(1, connpasstest.Participation{Confirmed: []connpasstest.Confirmed{{IDs: []string{"B"}}}})
	f.participation(2, connpasstest.Participation{Confirmed: []connpasstest.Confirmed{{Empty: true}}})

	got, _ := f.aggregate(t, newAggregator())

	if got["B"][0] != roster.StatusConfirmed {
		t.Errorf("B at E1 = %v, want confirmed despite joining later", got["B"][0])
	}
}

func TestAggregate_Precedence(t *testing.T) {
	page := connpasstest.Participation{
		Cancelled:  []string{"A", "C"},
		Organizers: []string{"A", "B"},
		Confirmed:  []connpasstest.Confirmed{{IDs: []string{"C", "B"}}},
	}

	tests := []struct {
		name  string
		order []Section
		want  map[string]roster.Status
	}{
		{
			name:  "default order",
			order: DefaultPrecedence,
			want: map[string]roster.Status{
				"A": roster.StatusOrganizer,
				"B": roster.StatusConfirmed,
				"C": roster.StatusConfirmed,
			},
		},
		{
			name:  "reversed order",
			order: []Section{SectionConfirmed, SectionOrganizer, SectionCancelled},
			want: map[string]roster.Status{
				"A": roster.StatusCancelled,
				"B": roster.StatusOrganizer,
				"C": roster.StatusCancelled,
			},
		},
		{
			name:  "confirmed only",
			order: []Section{SectionConfirmed},
			want: map[string]roster.Status{
				"A": roster.StatusNone,
				"B": roster.StatusConfirmed,
				"C": roster.StatusConfirmed,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.events = f.events[1:] // E2: everyone is a member
			f.participation(2, page)

			got, _ := f.aggregate(t, newAggregator().WithPrecedence(tt.order...))

			for id, want := range tt.want {
				if got[id][0] != want {
					t.Errorf("%s = %v, want %v", id, got[id][0], want)
				}
			}
		})
	}
}

func TestAggregate_FetchFailureSkipsEvent(t *testing.T) {
	f := newFixture(t)
	f.site.Fail(participationURI(1), http.StatusInternalServerError)
	f.participation(2, connpasstest.Participation{Confirmed: []connpasstest.Confirmed{{IDs: []string{"A"}}}})

	got, report := f.aggregate(t, newAggregator())

	want := map[string][]roster.Status{
		"A": {roster.StatusNone, roster.StatusConfirmed},
		"B": {roster.StatusNotYetMember, roster.StatusNone},
		"C": {roster.StatusNone, roster.StatusNone},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("matrix mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{f.events[0].ParticipationURL()}, report.Skipped); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
	if report.Events != 1 {
		t.Errorf("report.Events = %d, want 1", report.Events)
	}
}

func TestAggregate_UnknownAndAnonymousRows(t *testing.T) {
	f := newFixture(t)
	f.participation(1, connpasstest.Participation{
		Organizers: []string{"ghost", ""},
		Confirmed:  []connpasstest.Confirmed{{IDs: []string{"A", "ghost", "", "stranger"}}},
	})
	f.participation(2, connpasstest.Participation{Confirmed: []connpasstest.Confirmed{{Empty: true}}})

	got, report := f.aggregate(t, newAggregator())

	if _, ok := got["ghost"]; ok {
		t.Error("unknown participant was inserted into the matrix")
	}
	if got["A"][0] != roster.StatusConfirmed {
		t.Errorf("A at E1 = %v, want confirmed", got["A"][0])
	}
	if diff := cmp.Diff([]string{"ghost", "stranger"}, report.UnknownIDs); diff != "" {
		t.Errorf("unknown ids mismatch (-want +got):\n%s", diff)
	}
	if report.Anonymous != 2 {
		t.Errorf("report.Anonymous = %d, want 2", report.Anonymous)
	}
}

func TestAggregate_OverflowListing(t *testing.T) {
	f := newFixture(t)
	overflow := f.site.URL() + "/event/1/participation/ptype/"
	f.participation(1, connpasstest.Participation{
		Confirmed: []connpasstest.Confirmed{{IDs: []string{"B"}, OverflowURL: overflow}},
	})
	f.site.Page("/event/1/participation/ptype/", connpasstest.OverflowListing([]string{"A"}, "?page=2"))
	f.site.Page("/event/1/participation/ptype/?page=2", connpasstest.OverflowListing([]string{"C", ""}, ""))
	f.participation(2, connpasstest.Participation{Confirmed: []connpasstest.Confirmed{{Empty: true}}})

	got, report := f.aggregate(t, newAggregator())

	if got["A"][0] != roster.StatusConfirmed || got["C"][0] != roster.StatusConfirmed {
		t.Errorf("overflow participants not confirmed: A=%v C=%v", got["A"][0], got["C"][0])
	}
	// B is only in the truncated preview rows, which are superseded by the listing.
	if got["B"][0] != roster.StatusNotYetMember {
		t.Errorf("B at E1 = %v, want not_yet_member", got["B"][0])
	}
	if report.Overflows != 1 {
		t.Errorf("report.Overflows = %d, want 1", report.Overflows)
	}
	if report.Anonymous != 1 {
		t.Errorf("report.Anonymous = %d, want 1", report.Anonymous)
	}
	if f.site.Hits("/event/1/participation/ptype/?page=2") != 1 {
		t.Error("second overflow page was not fetched exactly once")
	}
}

func TestAggregate_RepeatedSectionReadOnce(t *testing.T) {
	f := newFixture(t)
	f.events = f.events[:1]
	overflow := f.site.URL() + "/event/1/participation/ptype/"
	f.participation(1, connpasstest.Participation{
		Confirmed: []connpasstest.Confirmed{{OverflowURL: overflow}},
	})
	f.site.Page("/event/1/participation/ptype/", connpasstest.OverflowListing([]string{"A", ""}, ""))

	got, report := f.aggregate(t, newAggregator().WithPrecedence(SectionConfirmed, SectionConfirmed))

	if got["A"][0] != roster.StatusConfirmed {
		t.Errorf("A at E1 = %v, want confirmed", got["A"][0])
	}
	if hits := f.site.Hits("/event/1/participation/ptype/"); hits != 1 {
		t.Errorf("overflow listing fetched %d times, want 1", hits)
	}
	if report.Overflows != 1 || report.Anonymous != 1 {
		t.Errorf("report overflows=%d anonymous=%d, want 1 and 1", report.Overflows, report.Anonymous)
	}
}

func TestAggregate_WithPolicy(t *testing.T) {
	english := extract.DefaultPolicy
	english.NoParticipants = "No applicants yet."

	newSite := func(t *testing.T) *fixture {
		f := newFixture(t)
		f.events = f.events[:1]
		f.participation(1, connpasstest.Participation{
			Organizers: []string{"A"},
			Confirmed:  []connpasstest.Confirmed{{Empty: true, EmptyText: english.NoParticipants}},
		})
		return f
	}

	t.Run("custom sentinel", func(t *testing.T) {
		f := newSite(t)
		got, _ := f.aggregate(t, newAggregator().WithPolicy(english))
		if got["A"][0] != roster.StatusOrganizer {
			t.Errorf("A at E1 = %v, want organizer", got["A"][0])
		}
	})

	t.Run("default policy rejects unknown sentinel", func(t *testing.T) {
		f := newSite(t)
		_, _, err := newAggregator().Aggregate(context.Background(), f.members, f.events)
		if !errors.Is(err, extract.ErrStructure) {
			t.Errorf("Aggregate() error = %v, want ErrStructure", err)
		}
	})
}

func TestAggregate_DirectTableNoSubCrawl(t *testing.T) {
	f := newFixture(t)
	f.participation(1, connpasstest.Participation{Confirmed: []connpasstest.Confirmed{{IDs: []string{"A", "C"}}}})
	f.participation(2, connpasstest.Participation{Confirmed: []connpasstest.Confirmed{{IDs: []string{"A"}}}})

	_, report := f.aggregate(t, newAggregator())

	want := []string{participationURI(1), participationURI(2)}
	if diff := cmp.Diff(want, f.site.Requests()); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
	if report.Overflows != 0 {
		t.Errorf("report.Overflows = %d, want 0", report.Overflows)
	}
}

func TestAggregate_MultipleConfirmedTables(t *testing.T) {
	f := newFixture(t)
	f.events = f.events[1:]
	f.participation(2, connpasstest.Participation{Confirmed: []connpasstest.Confirmed{
		{IDs: []string{"A"}},
		{Empty: true},
		{IDs: []string{"C"}},
	}})

	got, _ := f.aggregate(t, newAggregator())

	if got["A"][0] != roster.StatusConfirmed || got["C"][0] != roster.StatusConfirmed {
		t.Errorf("got A=%v C=%v, want both confirmed", got["A"][0], got["C"][0])
	}
}

func TestAggregate_MissingOrganizerAreaIsFatal(t *testing.T) {
	f := newFixture(t)
	f.site.Page(participationURI(1), `<html><body><div class="participation_table_area"></div></body></html>`)

	_, _, err := newAggregator().Aggregate(context.Background(), f.members, f.events)
	if !errors.Is(err, extract.ErrStructure) {
		t.Errorf("Aggregate() error = %v, want ErrStructure", err)
	}
	if f.site.Hits(participationURI(2)) != 0 {
		t.Error("run should stop at the first structural failure")
	}
}

func TestAggregate_NoEvents(t *testing.T) {
	f := newFixture(t)
	f.events = nil

	got, report := f.aggregate(t, newAggregator())
	for id, row := range got {
		if len(row) != 0 {
			t.Errorf("row %s = %v, want empty", id, row)
		}
	}
	if report.Events != 0 {
		t.Errorf("report.Events = %d, want 0", report.Events)
	}
}

func TestParseSection(t *testing.T) {
	for _, s := range DefaultPrecedence {
		got, err := ParseSection(s.String())
		if err != nil || got != s {
			t.Errorf("ParseSection(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseSection("waitlist"); err == nil {
		t.Error("ParseSection(waitlist) should fail")
	}
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		want    []Section
		wantErr bool
	}{
		{name: "empty is default", names: nil, want: DefaultPrecedence},
		{name: "custom order", names: []string{"confirmed", "cancelled"}, want: []Section{SectionConfirmed, SectionCancelled}},
		{name: "unknown section", names: []string{"speaker"}, wantErr: true},
		{name: "duplicate section", names: []string{"confirmed", "confirmed"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrecedence(tt.names)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePrecedence(%v) error = %v, wantErr %v", tt.names, err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParsePrecedence(%v) mismatch (-want +got):\n%s", tt.names, diff)
			}
		})
	}
}
