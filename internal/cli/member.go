package cli

import (
	"fmt"
	"io"

	"github.com/pfrederiksen/connpass-attendance/internal/roster"
	"github.com/pfrederiksen/connpass-attendance/internal/storage"
	"github.com/spf13/cobra"
)

func newMemberCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "member <id>",
		Short: "Show a member's attendance from the last snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.New(dataDir)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}
			snapshot, err := store.LoadSnapshot()
			if err != nil {
				return fmt.Errorf("loading snapshot: %w", err)
			}
			member, err := store.GetMember(args[0])
			if err != nil {
				return err
			}
			return writeMember(cmd.OutOrStdout(), member, snapshot)
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", storage.DefaultDataDir, "Data directory for snapshots")

	return cmd
}

// writeMember prints one member's row, skipping events with no record.
func writeMember(w io.Writer, member *roster.Member, snapshot *roster.Snapshot) error {
	fmt.Fprintf(w, "%s (%s)\n", member.Name, member.ID)
	fmt.Fprintf(w, "Joined: %s\n", joinText(member.JoinDate))
	fmt.Fprintf(w, "Self-reported visits: %d\n", member.SelfReportedCount)

	row, ok := snapshot.Attendance.Row(member.ID)
	if !ok {
		return fmt.Errorf("no attendance row for member %s", member.ID)
	}

	tally := snapshot.Attendance.Tally(member.ID)
	fmt.Fprintf(w, "Attended: %d (organizer %d), cancelled %d\n",
		tally.Confirmed+tally.Organizer, tally.Organizer, tally.Cancelled)

	for i, s := range row {
		if s == roster.StatusNone || s == roster.StatusNotYetMember || i >= len(snapshot.Events) {
			continue
		}
		e := snapshot.Events[i]
		fmt.Fprintf(w, "  %s  %-9s  %s\n", e.Date, s, e.Title)
	}

	if snapshot.UpdatedAt != "" {
		fmt.Fprintf(w, "\nAs of %s\n", snapshot.UpdatedAt)
	}
	return nil
}
