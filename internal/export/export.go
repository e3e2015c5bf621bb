package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sadopc/taskflow/internal/flow"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv or json)", s)
}

// DefaultPath names an export file in dir, e.g. taskflow-week-2024-01-02.csv.
func DefaultPath(dir string, f Format, label string, now time.Time) string {
	name := "taskflow"
	if label != "" {
		name += "-" + label
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s.%s", name, now.Format("2006-01-02"), f))
}

// Write dispatches to ToCSV or ToJSON. CSV output carries no insights.
func Write(f Format, tasks []flow.Task, insights []flow.TaskInsight, projects []flow.Project, path string) error {
	switch f {
	case FormatCSV:
		return ToCSV(tasks, projects, path)
	case FormatJSON:
		return ToJSON(tasks, insights, projects, path)
	}
	return fmt.Errorf("unknown export format %q", f)
}
