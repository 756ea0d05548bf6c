package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pfrederiksen/connpass-attendance/internal/connpasstest"
)

type testGroup struct {
	site    *connpasstest.Site
	dir     string
	config  string
	output  string
	dataDir string
}

// newTestGroup serves a group with members A, B and C and events E1
// (2020/01/01) and E2 (2020/02/01).
func newTestGroup(t *testing.T) *testGroup {
	t.Helper()
	site := connpasstest.NewSite()
	t.Cleanup(site.Close)

	dir := t.TempDir()
	g := &testGroup{
		site:    site,
		dir:     dir,
		config:  filepath.Join(dir, "config.json5"),
		output:  filepath.Join(dir, "out.csv"),
		dataDir: filepath.Join(dir, "data"),
	}

	cfg := fmt.Sprintf(`{
		member_url: %q,
		event_url: %q,
		delay: "0s",
	}`, site.URL()+"/participation/", site.URL()+"/event/")
	if err := os.WriteFile(g.config, []byte(cfg), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	site.Page("/participation/", connpasstest.MemberListing([]connpasstest.Member{
		{ID: "A", Name: "Alice", Count: "3 回", Join: "2019/12/01"},
		{ID: "B", Name: "Bob", Count: "1 回", Join: "2020/01/15"},
		{ID: "C", Name: "Carol", Count: "2 回", Join: "2019/06/01"},
	}, ""))
	site.Page("/event/", connpasstest.EventListing([]connpasstest.Event{
		{Date: "2020/02/01（土）13:00〜", Title: "E2", URL: site.URL() + "/event/2/"},
		{Date: "2020/01/01（水）19:00〜", Title: "E1", URL: site.URL() + "/event/1/"},
	}, ""))
	site.Page("/event/1/participation/", connpasstest.ParticipationPage(connpasstest.Participation{
		Cancelled:  []string{"C"},
		Organizers: []string{"A"},
		Confirmed:  []connpasstest.Confirmed{{Empty: true}},
	}))
	g.confirmE2("B", "C")

	return g
}

func (g *testGroup) confirmE2(ids ...string) {
	g.site.Page("/event/2/participation/", connpasstest.ParticipationPage(connpasstest.Participation{
		Confirmed: []connpasstest.Confirmed{{IDs: ids}},
	}))
}

func (g *testGroup) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", g.config, "--data-dir", g.dataDir}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRun_WritesCSV(t *testing.T) {
	g := newTestGroup(t)

	if _, _, err := g.run(t, "--output", g.output); err != nil {
		t.Fatalf("run error = %v", err)
	}

	data, err := os.ReadFile(g.output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	want := strings.Join([]string{
		"ID,name,join,count,E1,E2",
		"A,Alice,2019/12/01,3,10,0",
		"B,Bob,2020/01/15,1,-1,2",
		"C,Carol,2019/06/01,2,1,2",
	}, "\n") + "\n"
	if string(data) != want {
		t.Errorf("CSV =\n%s\nwant\n%s", data, want)
	}

	if _, err := os.Stat(filepath.Join(g.dataDir, "snapshot.json")); err != nil {
		t.Errorf("snapshot not saved: %v", err)
	}
}

func TestRun_StdoutJSON(t *testing.T) {
	g := newTestGroup(t)

	stdout, _, err := g.run(t, "--output", "-", "--format", "json")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	if !strings.Contains(stdout, `"members"`) || !strings.Contains(stdout, `"attendance"`) {
		t.Errorf("unexpected JSON output:\n%s", stdout)
	}
}

func TestRun_Table(t *testing.T) {
	g := newTestGroup(t)

	stdout, _, err := g.run(t, "--format", "table", "--sort", "attended")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	carol := strings.Index(stdout, "Carol")
	bob := strings.Index(stdout, "Bob")
	if carol < 0 || bob < 0 {
		t.Fatalf("table missing rows:\n%s", stdout)
	}
	// Carol attended once, Bob once, Alice once as organizer; ties sort by ID.
	if alice := strings.Index(stdout, "Alice"); !(alice < bob && bob < carol) {
		t.Errorf("unexpected row order:\n%s", stdout)
	}
	if _, err := os.Stat(g.output); !os.IsNotExist(err) {
		t.Errorf("table format should not write a file")
	}
}

func TestRun_Changes(t *testing.T) {
	g := newTestGroup(t)

	// First run: everything is new.
	stdout, _, err := g.run(t, "--output", g.output, "--changes")
	if !errors.Is(err, ErrChangesFound) {
		t.Fatalf("first run error = %v, want ErrChangesFound", err)
	}
	if ExitCode(err) != ExitChanges {
		t.Errorf("ExitCode() = %d, want %d", ExitCode(err), ExitChanges)
	}
	if !strings.Contains(stdout, "New members (3)") || !strings.Contains(stdout, "New events (2)") {
		t.Errorf("unexpected changes output:\n%s", stdout)
	}

	// Second run: nothing changed.
	stdout, _, err = g.run(t, "--output", g.output, "--changes")
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}
	if !strings.Contains(stdout, "No changes since last run.") {
		t.Errorf("unexpected changes output:\n%s", stdout)
	}

	// Third run: A now confirmed for E2.
	g.confirmE2("A", "B", "C")
	stdout, _, err = g.run(t, "--output", g.output, "--changes")
	if !errors.Is(err, ErrChangesFound) {
		t.Fatalf("third run error = %v, want ErrChangesFound", err)
	}
	if !strings.Contains(stdout, "Alice (A): none -> confirmed") {
		t.Errorf("unexpected changes output:\n%s", stdout)
	}
}

func TestRun_VerboseSummary(t *testing.T) {
	g := newTestGroup(t)
	g.site.Fail("/event/2/participation/", 503)

	_, stderr, err := g.run(t, "--output", g.output, "--verbose")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	for _, want := range []string{"Members: 3", "Events: 2", "Skipped events (1):", "/event/2/participation/"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestRun_StructureErrorLeavesNoOutput(t *testing.T) {
	g := newTestGroup(t)
	g.site.Page("/event/1/participation/", `<html><body><p>maintenance</p></body></html>`)

	_, _, err := g.run(t, "--output", g.output)
	if err == nil {
		t.Fatal("run should fail on a participation page without its areas")
	}
	if ExitCode(err) != ExitError {
		t.Errorf("ExitCode() = %d, want %d", ExitCode(err), ExitError)
	}
	if _, err := os.Stat(g.output); !os.IsNotExist(err) {
		t.Errorf("output file written despite fatal error")
	}
}

func TestRun_CorruptSnapshotFailsBeforeCrawl(t *testing.T) {
	g := newTestGroup(t)
	if err := os.MkdirAll(g.dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(g.dataDir, "snapshot.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := g.run(t, "--output", g.output)
	if err == nil {
		t.Fatal("run should fail on an unreadable snapshot")
	}
	if _, err := os.Stat(g.output); !os.IsNotExist(err) {
		t.Errorf("output file written despite fatal error")
	}
	if hits := len(g.site.Requests()); hits != 0 {
		t.Errorf("made %d requests before reading the snapshot", hits)
	}
}

func TestRun_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "format", args: []string{"--format", "xml"}},
		{name: "since", args: []string{"--since", "yesterday"}},
		{name: "window", args: []string{"--since", "2020/03/01", "--until", "2020/01/01"}},
		{name: "sort", args: []string{"--sort", "random"}},
		{name: "precedence", args: []string{"--precedence", "cancelled,speaker"}},
		{name: "repeated precedence", args: []string{"--precedence", "confirmed,confirmed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGroup(t)
			if _, _, err := g.run(t, tt.args...); err == nil {
				t.Errorf("run(%v) should fail", tt.args)
			}
			if hits := len(g.site.Requests()); hits != 0 {
				t.Errorf("made %d requests before validating flags", hits)
			}
		})
	}
}

func TestRun_SinceWindow(t *testing.T) {
	g := newTestGroup(t)

	if _, _, err := g.run(t, "--output", g.output, "--since", "2020/01/15"); err != nil {
		t.Fatalf("run error = %v", err)
	}

	data, err := os.ReadFile(g.output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.HasPrefix(string(data), "ID,name,join,count,E2\n") {
		t.Errorf("unexpected header:\n%s", data)
	}
	if g.site.Hits("/event/1/participation/") != 0 {
		t.Error("event outside the window was fetched")
	}
}

func TestMemberCommand(t *testing.T) {
	g := newTestGroup(t)
	if _, _, err := g.run(t, "--output", g.output); err != nil {
		t.Fatalf("run error = %v", err)
	}

	var stdout bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"member", "C", "--data-dir", g.dataDir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("member error = %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"Carol (C)", "Joined: 2019/06/01", "cancelled", "confirmed"} {
		if !strings.Contains(out, want) {
			t.Errorf("member output missing %q:\n%s", want, out)
		}
	}

	cmd = NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"member", "nobody", "--data-dir", g.dataDir})
	if err := cmd.Execute(); err == nil {
		t.Error("member should fail for an unknown ID")
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != ExitSuccess {
		t.Error("nil error should exit 0")
	}
	if ExitCode(fmt.Errorf("wrapped: %w", ErrChangesFound)) != ExitChanges {
		t.Error("wrapped ErrChangesFound should exit 2")
	}
	if ExitCode(errors.New("boom")) != ExitError {
		t.Error("other errors should exit 1")
	}
}
