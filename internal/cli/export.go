package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sadopc/taskflow/internal/analytics"
	"github.com/sadopc/taskflow/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		period string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export completed tasks to CSV or JSON",
		Long: `Export the tasks completed within a period. JSON output also carries the
feedback recorded when each task was completed.`,
		Example: `  taskflow export --format csv --period week
  taskflow export --format json --period all -o ~/done.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			p, err := analytics.ParsePeriod(period)
			if err != nil {
				return err
			}

			e, s, err := a.openEngine()
			if err != nil {
				return err
			}
			defer s.Close()

			now := e.Now()
			snap := e.Snapshot()
			tasks := analytics.Completed(snap.Tasks, p, now)

			path := output
			if path == "" {
				if err := os.MkdirAll(a.cfg.Export.Dir, 0o755); err != nil {
					return fmt.Errorf("create export dir: %w", err)
				}
				path = export.DefaultPath(a.cfg.Export.Dir, f, string(p), now)
			}
			if err := export.Write(f, tasks, snap.Insights, snap.Projects, path); err != nil {
				return err
			}
			a.log.Info("exported tasks", "format", f, "period", p, "count", len(tasks), "path", path)
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks to %s\n", len(tasks), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format (csv, json)")
	cmd.Flags().StringVarP(&period, "period", "p", "week", "period (day, week, month, quarter, year, all)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <export.dir>/taskflow-<period>-<date>.<format>)")
	return cmd
}
