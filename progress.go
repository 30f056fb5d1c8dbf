package gamedex

// ProgressStatus tags a progress event.
type ProgressStatus string

// Progress event statuses.
const (
	ProgressConnected ProgressStatus = "connected"
	ProgressRunning   ProgressStatus = "progress"
	ProgressCompleted ProgressStatus = "completed"
	ProgressError     ProgressStatus = "error"
)

// ProgressEvent is one entry in a pipeline run's ordered progress stream.
// Events are ephemeral; one stream exists per run, keyed by an opaque
// correlation identifier.
type ProgressEvent struct {
	Step    int            `json:"step"`
	Total   int            `json:"total"`
	Percent int            `json:"percent"`
	Message string         `json:"message"`
	Status  ProgressStatus `json:"status"`
	Hint    string         `json:"hint,omitempty"`
	Record  *GameRecord    `json:"record,omitempty"`
}

// NewProgressEvent builds a running progress event with a derived percentage.
func NewProgressEvent(step, total int, message string) ProgressEvent {
	percent := 0
	if total > 0 {
		percent = step * 100 / total
	}
	return ProgressEvent{
		Step:    step,
		Total:   total,
		Percent: percent,
		Message: message,
		Status:  ProgressRunning,
	}
}
