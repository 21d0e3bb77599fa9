package models

// TaskRecord is one completed task found inside a board's Done section.
// Identity is the literal title; records are rebuilt on every parse.
type TaskRecord struct {
	Title string `yaml:"title" json:"title"`
}

// DispatchPayload is the data handed to the automation script when a new
// completed task is detected. Content duplicates Title because the board
// carries no body text for an entry.
type DispatchPayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NewDispatchPayload derives the payload for a completed task.
func NewDispatchPayload(rec TaskRecord) DispatchPayload {
	return DispatchPayload{Title: rec.Title, Content: rec.Title}
}

// Outcome describes what happened to a single file change notification.
type Outcome string

const (
	OutcomeIgnored        Outcome = "ignored"
	OutcomeDisabled       Outcome = "disabled"
	OutcomeReadFailed     Outcome = "read_failed"
	OutcomeNoGrowth       Outcome = "no_growth"
	OutcomeDispatched     Outcome = "dispatched"
	OutcomeDispatchFailed Outcome = "dispatch_failed"
)

// AllOutcomes lists every Outcome in a stable order.
var AllOutcomes = []Outcome{
	OutcomeIgnored,
	OutcomeDisabled,
	OutcomeReadFailed,
	OutcomeNoGrowth,
	OutcomeDispatched,
	OutcomeDispatchFailed,
}

// ChangeResult is the full record of one handled change notification.
type ChangeResult struct {
	Path     string
	Outcome  Outcome
	Previous int
	Current  int
	// Dispatched is set when a payload was handed to the script runner,
	// whether or not the script succeeded.
	Dispatched *DispatchPayload
	Output     string
	Err        error
}
