package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pfrederiksen/connpass-attendance/internal/attendance"
	"github.com/pfrederiksen/connpass-attendance/internal/catalog"
	"github.com/pfrederiksen/connpass-attendance/internal/config"
	"github.com/pfrederiksen/connpass-attendance/internal/export"
	"github.com/pfrederiksen/connpass-attendance/internal/fetcher"
	"github.com/pfrederiksen/connpass-attendance/internal/limiter"
	"github.com/pfrederiksen/connpass-attendance/internal/logger"
	"github.com/pfrederiksen/connpass-attendance/internal/roster"
	"github.com/pfrederiksen/connpass-attendance/internal/storage"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitChanges = 2
)

// ErrChangesFound is returned by a --changes run that found something new.
var ErrChangesFound = errors.New("changes found")

type options struct {
	configPath string
	output     string
	format     string
	delay      time.Duration
	dataDir    string
	since      string
	until      string
	logFile    string
	sortOrder  string
	verbose    bool
	changes    bool
	precedence []string
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "connpass-attendance",
		Short: "Build the LASA connpass attendance matrix",
		Long: `Crawls the group's members, events and participation pages on connpass
and writes one row per member with a status code per event:
10 organizer, 2 confirmed, 1 cancelled, 0 absent, -1 not yet a member.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a JSON5 config file (<name>.local.<ext> overrides it)")
	flags.StringVarP(&opts.output, "output", "o", export.DefaultFilename, "Output file, or - for stdout")
	flags.StringVar(&opts.format, "format", string(export.FormatCSV), "Output format: csv, json, table or ics")
	flags.DurationVar(&opts.delay, "delay", limiter.DefaultDelay, "Delay between requests")
	flags.StringVar(&opts.dataDir, "data-dir", storage.DefaultDataDir, "Data directory for snapshots")
	flags.StringVar(&opts.since, "since", "", "Only include events on or after this date (YYYY/MM/DD)")
	flags.StringVar(&opts.until, "until", "", "Only include events on or before this date (YYYY/MM/DD)")
	flags.StringVar(&opts.logFile, "log-file", "", "Write JSON logs to this file (rotated)")
	flags.StringVar(&opts.sortOrder, "sort", string(SortByRoster), "Table row order: roster, id, name, join or attended")
	flags.StringSliceVar(&opts.precedence, "precedence", nil, "Section order, last write wins (default cancelled,organizer,confirmed)")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	flags.BoolVar(&opts.changes, "changes", false, "Report changes since the previous run (exit 2 if any)")

	cmd.AddCommand(newMemberCmd())

	return cmd
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = opts.output
	}
	if flags.Changed("format") {
		cfg.Format = opts.format
	}
	if flags.Changed("delay") {
		cfg.Delay = opts.delay.String()
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = opts.dataDir
	}
	if flags.Changed("log-file") {
		cfg.LogFile = opts.logFile
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogger installs the default logger and returns its cleanup.
func setupLogger(cfg config.Config, stderr io.Writer) func() {
	if cfg.LogFile != "" {
		l, closer := logger.NewFile(cfg.Level(), cfg.LogFile)
		logger.SetDefault(l)
		return func() {
			l.Sync()       // nolint:errcheck
			closer.Close() // nolint:errcheck
		}
	}
	l := logger.New(cfg.Level(), stderr)
	logger.SetDefault(l)
	return func() { l.Sync() } // nolint:errcheck
}

func parseWindow(since, until string) (catalog.Window, error) {
	var w catalog.Window
	var err error
	if w.Since, err = roster.ParseDate(since); err != nil {
		return w, fmt.Errorf("invalid --since: %w", err)
	}
	if w.Until, err = roster.ParseDate(until); err != nil {
		return w, fmt.Errorf("invalid --until: %w", err)
	}
	if !w.Since.IsZero() && !w.Until.IsZero() && w.Since.After(w.Until) {
		return w, fmt.Errorf("--since %s is after --until %s", w.Since, w.Until)
	}
	return w, nil
}

func newFetcher(cfg config.Config) (*fetcher.Client, error) {
	delay, err := cfg.DelayDuration()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	lim := limiter.Nop()
	if delay > 0 {
		lim = limiter.NewDelay(delay)
	}

	return fetcher.New(fetcher.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   timeout,
		Limiter:   lim,
	}), nil
}

// runCrawl is the main command logic
func runCrawl(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	defer setupLogger(cfg, stderr)()

	window, err := parseWindow(opts.since, opts.until)
	if err != nil {
		return err
	}
	order, err := attendance.ParsePrecedence(opts.precedence)
	if err != nil {
		return err
	}
	sortOrder, err := ParseSortOrder(opts.sortOrder)
	if err != nil {
		return err
	}
	format := export.Format(cfg.Format)

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	previous, err := store.LoadSnapshot()
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}

	f, err := newFetcher(cfg)
	if err != nil {
		return err
	}

	if opts.verbose {
		fmt.Fprintf(stderr, "Fetching members from %s\n", cfg.MemberURL)
	}

	started := time.Now()
	builder := catalog.New(f, cfg.Source())
	members, err := builder.BuildMembers(ctx)
	if err != nil {
		return fmt.Errorf("building member roster: %w", err)
	}

	if opts.verbose {
		fmt.Fprintf(stderr, "Fetched %d members, fetching events from %s\n", len(members), cfg.EventURL)
	}

	events, err := builder.BuildEvents(ctx, window)
	if err != nil {
		return fmt.Errorf("building event timeline: %w", err)
	}

	if opts.verbose {
		fmt.Fprintf(stderr, "Fetched %d events, reading participation pages\n", len(events))
	}

	matrix, report, err := attendance.New(f).WithPrecedence(order...).Aggregate(ctx, members, events)
	if err != nil {
		return fmt.Errorf("aggregating attendance: %w", err)
	}

	snapshot := roster.CreateSnapshot(members, events, matrix, time.Now().UTC().Format(time.RFC3339))

	if err := writeResult(stdout, cfg.Output, format, sortOrder, snapshot); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	changes := roster.Diff(previous, snapshot)

	if err := store.SaveSnapshot(snapshot); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	summary := NewSummary(snapshot, report, logger.GetMetricsSnapshot(), time.Since(started))
	logger.Info("crawl complete", summary.Fields())
	if opts.verbose {
		WriteSummary(stderr, summary)
	}

	if opts.changes {
		// The output file may already be on stdout.
		w := stdout
		if cfg.Output == "-" && format != export.FormatTable {
			w = stderr
		}
		if err := WriteChanges(w, changes); err != nil {
			return fmt.Errorf("writing changes: %w", err)
		}
		if !changes.Empty() {
			return ErrChangesFound
		}
	}

	return nil
}

// writeResult sends tables to stdout and everything else to output, which
// may be "-" for stdout.
func writeResult(stdout io.Writer, output string, format export.Format, order SortOrder, snapshot *roster.Snapshot) error {
	if format == export.FormatTable {
		sorted := *snapshot
		sorted.Members = sortMembers(snapshot.Members, snapshot.Attendance, order)
		return export.WriteTable(stdout, &sorted)
	}
	if output == "-" {
		return export.Write(stdout, snapshot, format)
	}
	return export.WriteFile(output, snapshot, format)
}

// ExitCode maps an Execute error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrChangesFound):
		return ExitChanges
	default:
		return ExitError
	}
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	code := ExitCode(err)
	if code == ExitError {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}
