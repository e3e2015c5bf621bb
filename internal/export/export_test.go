package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/taskflow/internal/flow"
)

func sampleData() ([]flow.Task, []flow.TaskInsight, []flow.Project) {
	now := time.Now().UTC()
	done := now.Add(-time.Hour)

	tasks := []flow.Task{
		{
			ID:            "t1",
			ProjectID:     "p1",
			Text:          "Write report",
			Done:          true,
			Priority:      flow.PriorityHigh,
			EstimatedTime: 60,
			ActualTime:    90,
			TrackedTime:   120,
			Tags:          []string{"docs", "q1"},
			Notes:         "worked on feature",
			CompletedAt:   &done,
		},
		{
			ID:            "t2",
			ProjectID:     "p2",
			Text:          "Review PR",
			Done:          true,
			Priority:      flow.PriorityMedium,
			EstimatedTime: 30,
			ActualTime:    30,
			Tags:          []string{},
			CompletedAt:   &done,
		},
		{
			ID:        "t3",
			ProjectID: "p1",
			Text:      "Untimed",
			Priority:  flow.PriorityLow,
			Tags:      []string{},
		},
	}

	insights := []flow.TaskInsight{
		{ID: "i1", TaskID: "t1", EstimatedTime: 60, ActualTime: 90, TimeDiff: 30, Accuracy: 2, DelayReason: "Got Distracted", RecordedAt: done},
		{ID: "i2", TaskID: "elsewhere", EstimatedTime: 10, ActualTime: 5, TimeDiff: -5, Accuracy: 4, RecordedAt: done},
	}

	projects := []flow.Project{
		{ID: "p1", Name: "Project Alpha"},
		{ID: "p2", Name: "Project Beta"},
	}

	return tasks, insights, projects
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

func readJSON(t *testing.T, path string) jsonExport {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return result
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	tasks, _, projects := sampleData()
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(tasks, projects, path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	records := readCSV(t, path)
	// header + 3 data rows
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}

	for i, h := range csvHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	want := map[int]string{
		0:  "t1",
		1:  "Project Alpha",
		2:  "Write report",
		3:  "high",
		5:  "60",
		6:  "90",
		7:  "1h",
		8:  "1h 30m",
		9:  "significantly-over",
		10: "docs;q1",
		11: "worked on feature",
		12: "120",
	}
	for col, v := range want {
		if row[col] != v {
			t.Fatalf("%s = %q, want %q", csvHeader[col], row[col], v)
		}
	}
	if _, err := time.Parse(time.RFC3339, row[4]); err != nil {
		t.Fatalf("Completed is not RFC3339: %q", row[4])
	}

	// Open task has no completion time.
	if records[3][4] != "" {
		t.Fatalf("open task should have empty completed time, got %q", records[3][4])
	}
	if records[3][9] != "no-data" {
		t.Fatalf("status = %q, want no-data", records[3][9])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := ToCSV(nil, nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVUnknownProject(t *testing.T) {
	tasks := []flow.Task{{ID: "x", ProjectID: "missing", Text: "orphan"}}
	path := filepath.Join(t.TempDir(), "unknown.csv")

	if err := ToCSV(tasks, nil, path); err != nil {
		t.Fatal(err)
	}
	if got := readCSV(t, path)[1][1]; got != "Unknown" {
		t.Fatalf("expected 'Unknown' for missing project, got %q", got)
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	tasks := []flow.Task{{
		ID:        "1",
		ProjectID: "p",
		Text:      "line one\nline two",
		Notes:     `notes with "quotes" and, commas`,
	}}
	projects := []flow.Project{{ID: "p", Name: `Project "Special"`}}
	path := filepath.Join(t.TempDir(), "special.csv")

	if err := ToCSV(tasks, projects, path); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, path)
	if records[1][1] != `Project "Special"` {
		t.Fatalf("project name mangled: %q", records[1][1])
	}
	if records[1][2] != "line one\nline two" {
		t.Fatalf("task text mangled: %q", records[1][2])
	}
	if records[1][11] != `notes with "quotes" and, commas` {
		t.Fatalf("notes mangled: %q", records[1][11])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	tasks, insights, projects := sampleData()
	path := filepath.Join(t.TempDir(), "test.json")

	if err := ToJSON(tasks, insights, projects, path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	result := readJSON(t, path)
	if result.Count != 3 || len(result.Tasks) != 3 {
		t.Fatalf("count = %d, tasks = %d, want 3", result.Count, len(result.Tasks))
	}
	if result.ExportedAt == "" {
		t.Fatal("exported_at should not be empty")
	}

	e := result.Tasks[0]
	if e.ID != "t1" || e.Project != "Project Alpha" || e.EstimatedMinutes != 60 || e.ActualMinutes != 90 || e.TrackedMinutes != 120 {
		t.Fatalf("first task = %+v", e)
	}
	if e.Actual != "1h 30m" || e.Status != "significantly-over" {
		t.Fatalf("formatted fields = %+v", e)
	}
	if result.Tasks[2].CompletedAt != "" {
		t.Fatalf("open task completed_at should be empty, got %q", result.Tasks[2].CompletedAt)
	}

	// Only insights for exported tasks are included.
	if len(result.Insights) != 1 {
		t.Fatalf("insights = %d, want 1", len(result.Insights))
	}
	in := result.Insights[0]
	if in.TaskID != "t1" || in.Task != "Write report" || in.TimeDiff != 30 || in.DelayReason != "Got Distracted" {
		t.Fatalf("insight = %+v", in)
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := ToJSON(nil, nil, nil, path); err != nil {
		t.Fatal(err)
	}
	result := readJSON(t, path)
	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
	if result.Tasks != nil || result.Insights != nil {
		t.Fatal("tasks and insights should be nil/null for empty export")
	}
}

func TestToJSONUnknownProject(t *testing.T) {
	tasks := []flow.Task{{ID: "x", ProjectID: "missing"}}
	path := filepath.Join(t.TempDir(), "unknown.json")
	if err := ToJSON(tasks, nil, nil, path); err != nil {
		t.Fatal(err)
	}
	if got := readJSON(t, path).Tasks[0].Project; got != "Unknown" {
		t.Fatalf("expected 'Unknown', got %q", got)
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, nil, nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToJSONPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	ToJSON(nil, nil, nil, path)

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n") {
		t.Fatal("JSON should be pretty-printed with newlines")
	}
	if !strings.Contains(string(data), "  ") {
		t.Fatal("JSON should be indented with spaces")
	}
}

func TestToJSONValidTimestamps(t *testing.T) {
	tasks, insights, projects := sampleData()
	path := filepath.Join(t.TempDir(), "ts.json")
	ToJSON(tasks, insights, projects, path)

	result := readJSON(t, path)
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
	for _, e := range result.Tasks[:2] {
		if _, err := time.Parse(time.RFC3339, e.CompletedAt); err != nil {
			t.Fatalf("completed_at is not valid RFC3339: %q", e.CompletedAt)
		}
	}
	for _, in := range result.Insights {
		if _, err := time.Parse(time.RFC3339, in.RecordedAt); err != nil {
			t.Fatalf("recorded_at is not valid RFC3339: %q", in.RecordedAt)
		}
	}
}

// ============================================================
// Formats and paths
// ============================================================

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{" JSON ", FormatJSON, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestDefaultPath(t *testing.T) {
	now := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	if got, want := DefaultPath("/tmp", FormatCSV, "week", now), filepath.Join("/tmp", "taskflow-week-2024-01-02.csv"); got != want {
		t.Fatalf("DefaultPath = %q, want %q", got, want)
	}
	if got, want := DefaultPath("/tmp", FormatJSON, "", now), filepath.Join("/tmp", "taskflow-2024-01-02.json"); got != want {
		t.Fatalf("DefaultPath = %q, want %q", got, want)
	}
}

func TestWriteDispatches(t *testing.T) {
	tasks, insights, projects := sampleData()
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "out.csv")
	if err := Write(FormatCSV, tasks, insights, projects, csvPath); err != nil {
		t.Fatal(err)
	}
	if len(readCSV(t, csvPath)) != 4 {
		t.Fatal("csv export wrote wrong row count")
	}

	jsonPath := filepath.Join(dir, "out.json")
	if err := Write(FormatJSON, tasks, insights, projects, jsonPath); err != nil {
		t.Fatal(err)
	}
	if readJSON(t, jsonPath).Count != 3 {
		t.Fatal("json export wrote wrong count")
	}

	if err := Write("xml", tasks, insights, projects, filepath.Join(dir, "out.xml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
