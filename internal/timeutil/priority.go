package timeutil

// Priority levels accepted by the engine.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// PriorityRank orders priorities for sorting; higher is more urgent.
// Unknown values rank below low.
func PriorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// PriorityCategory maps a priority to the display class the UI colours it
// with: "danger", "warning", "success" or "neutral".
func PriorityCategory(p string) string {
	switch p {
	case PriorityHigh:
		return "danger"
	case PriorityMedium:
		return "warning"
	case PriorityLow:
		return "success"
	default:
		return "neutral"
	}
}

// ValidPriority reports whether p is one of low, medium or high.
func ValidPriority(p string) bool {
	return PriorityRank(p) > 0
}
