package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/sadopc/taskflow/internal/analytics"
	"github.com/sadopc/taskflow/internal/flow"
	"github.com/sadopc/taskflow/internal/store"
	"github.com/sadopc/taskflow/internal/timeutil"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		period      string
		showStorage bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print completion stats, streaks and achievements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := analytics.ParsePeriod(period)
			if err != nil {
				return err
			}
			e, s, err := a.openEngine()
			if err != nil {
				return err
			}
			defer s.Close()

			writeStats(cmd.OutOrStdout(), e.Snapshot(), p, e.Now())
			if showStorage {
				return writeStorage(cmd.OutOrStdout(), s, e.Now())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", "week", "period (day, week, month, quarter, year, all)")
	cmd.Flags().BoolVar(&showStorage, "storage", false, "also list stored keys and when each was last saved")
	return cmd
}

func writeStats(w io.Writer, snap flow.Snapshot, p analytics.Period, now time.Time) {
	done := analytics.Completed(snap.Tasks, p, now)
	sum := analytics.Summarize(done)

	fmt.Fprintf(w, "%s: %s completed\n", p.Title(), english.Plural(sum.Count, "task", ""))
	fmt.Fprintf(w, "  Estimated %s, tracked %s\n",
		timeutil.FormatMinutes(sum.EstimatedMinutes), timeutil.FormatMinutes(sum.TrackedMinutes))
	if last := lastCompleted(snap.Tasks); last != nil {
		fmt.Fprintf(w, "  Last completed %s\n", humanize.RelTime(*last, now, "ago", "from now"))
	}

	st := analytics.ComputeStreaks(snap.Tasks, now)
	fmt.Fprintf(w, "\nStreak: %s (best %s)\n", english.Plural(st.Current, "day", ""), english.Plural(st.Best, "day", ""))

	if cats := analytics.CategoryBreakdown(done, snap.Projects); len(cats) > 0 {
		fmt.Fprintln(w, "\nBy category:")
		for _, c := range cats {
			fmt.Fprintf(w, "  %-10s %6s  %s\n", c.Category, timeutil.FormatMinutes(c.Minutes), english.Plural(c.Count, "task", ""))
		}
	}
	if groups := analytics.ProjectBreakdown(done, snap.Projects); len(groups) > 0 {
		fmt.Fprintln(w, "\nBy project:")
		for _, g := range groups {
			fmt.Fprintf(w, "  %-20s %6s  %s\n", g.ProjectName, timeutil.FormatMinutes(g.EstimatedMinutes), english.Plural(g.Count(), "task", ""))
		}
	}

	fmt.Fprintln(w, "\nAchievements:")
	for _, ach := range analytics.Achievements(snap.Tasks, now) {
		mark := "[ ]"
		if ach.Unlocked {
			mark = "[x]"
		}
		fmt.Fprintf(w, "  %s %-20s %s/%s  %s\n", mark, ach.Title,
			humanize.Comma(int64(ach.Progress)), humanize.Comma(int64(ach.Target)), ach.Description)
	}
}

// writeStorage lists the keys in the database and their last write time.
func writeStorage(w io.Writer, s *store.Store, now time.Time) error {
	keys, err := s.Keys()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nStorage: %s\n", english.Plural(len(keys), "key", ""))
	for _, k := range keys {
		ts, err := s.UpdatedAt(k)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %-28s saved %s\n", k, humanize.RelTime(ts, now, "ago", "from now"))
	}
	return nil
}

func lastCompleted(tasks []flow.Task) *time.Time {
	var last *time.Time
	for _, t := range tasks {
		if t.Done && t.CompletedAt != nil && (last == nil || t.CompletedAt.After(*last)) {
			last = t.CompletedAt
		}
	}
	return last
}
