package store

// Keys under which the task engine persists its state.
const (
	KeyProjects        = "taskflow-projects"
	KeyTasks           = "taskflow-tasks"
	KeyQueue           = "taskflow-queue"
	KeySelectedProject = "taskflow-selected-project"
	KeyDailyTime       = "taskflow-daily-time"
	KeyLastPlanning    = "taskflow-last-planning"
	KeyReflections     = "taskflow-reflections"
	KeyInsights        = "taskflow-insights"
)

// AllKeys lists every key the engine reads at startup.
var AllKeys = []string{
	KeyProjects,
	KeyTasks,
	KeyQueue,
	KeySelectedProject,
	KeyDailyTime,
	KeyLastPlanning,
	KeyReflections,
	KeyInsights,
}
