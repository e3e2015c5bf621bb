package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/taskflow/internal/flow"
	"github.com/sadopc/taskflow/internal/timeutil"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Tasks      []jsonTask    `json:"tasks"`
	Insights   []jsonInsight `json:"insights,omitempty"`
}

type jsonTask struct {
	ID               string   `json:"id"`
	Project          string   `json:"project"`
	ProjectID        string   `json:"project_id"`
	Text             string   `json:"text"`
	Priority         string   `json:"priority"`
	CompletedAt      string   `json:"completed_at,omitempty"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	ActualMinutes    int      `json:"actual_minutes"`
	TrackedMinutes   int      `json:"tracked_minutes"`
	Estimated        string   `json:"estimated"`
	Actual           string   `json:"actual"`
	Status           string   `json:"status"`
	Tags             []string `json:"tags,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

type jsonInsight struct {
	TaskID           string `json:"task_id"`
	Task             string `json:"task,omitempty"`
	EstimatedMinutes int    `json:"estimated_minutes"`
	ActualMinutes    int    `json:"actual_minutes"`
	TimeDiff         int    `json:"time_diff"`
	Accuracy         int    `json:"accuracy"`
	DelayReason      string `json:"delay_reason,omitempty"`
	Notes            string `json:"notes,omitempty"`
	RecordedAt       string `json:"recorded_at"`
}

// ToJSON writes tasks and the completion feedback recorded for them as one
// indented document.
func ToJSON(tasks []flow.Task, insights []flow.TaskInsight, projects []flow.Project, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(tasks),
	}

	names := projectNames(projects)
	texts := make(map[string]string, len(tasks))
	for _, t := range tasks {
		texts[t.ID] = t.Text
		export.Tasks = append(export.Tasks, jsonTask{
			ID:               t.ID,
			Project:          projectName(names, t.ProjectID),
			ProjectID:        t.ProjectID,
			Text:             t.Text,
			Priority:         string(t.Priority),
			CompletedAt:      formatTime(t.CompletedAt),
			EstimatedMinutes: t.EstimatedTime,
			ActualMinutes:    t.ActualTime,
			TrackedMinutes:   t.TrackedTime,
			Estimated:        timeutil.FormatMinutes(t.EstimatedTime),
			Actual:           timeutil.FormatMinutes(t.ActualTime),
			Status:           string(timeutil.Compare(t.ActualTime, t.EstimatedTime)),
			Tags:             t.Tags,
			Notes:            t.Notes,
		})
	}

	for _, in := range insights {
		if _, ok := texts[in.TaskID]; !ok {
			continue
		}
		export.Insights = append(export.Insights, jsonInsight{
			TaskID:           in.TaskID,
			Task:             texts[in.TaskID],
			EstimatedMinutes: in.EstimatedTime,
			ActualMinutes:    in.ActualTime,
			TimeDiff:         in.TimeDiff,
			Accuracy:         in.Accuracy,
			DelayReason:      in.DelayReason,
			Notes:            in.Notes,
			RecordedAt:       in.RecordedAt.Local().Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
