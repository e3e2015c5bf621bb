// Package export writes completed tasks and completion feedback to CSV and
// JSON files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/taskflow/internal/flow"
	"github.com/sadopc/taskflow/internal/timeutil"
)

var csvHeader = []string{
	"ID", "Project", "Task", "Priority", "Completed",
	"Estimated (min)", "Actual (min)", "Estimated", "Actual", "Status", "Tags", "Notes",
	"Tracked (min)",
}

// ToCSV writes one row per task.
func ToCSV(tasks []flow.Task, projects []flow.Project, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	names := projectNames(projects)
	for _, t := range tasks {
		row := []string{
			t.ID,
			projectName(names, t.ProjectID),
			t.Text,
			string(t.Priority),
			formatTime(t.CompletedAt),
			strconv.Itoa(t.EstimatedTime),
			strconv.Itoa(t.ActualTime),
			timeutil.FormatMinutes(t.EstimatedTime),
			timeutil.FormatMinutes(t.ActualTime),
			string(timeutil.Compare(t.ActualTime, t.EstimatedTime)),
			strings.Join(t.Tags, ";"),
			t.Notes,
			strconv.Itoa(t.TrackedTime),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func projectNames(projects []flow.Project) map[string]string {
	m := make(map[string]string, len(projects))
	for _, p := range projects {
		m[p.ID] = p.Name
	}
	return m
}

func projectName(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return flow.UnknownProjectName
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}
