package model

// JobStatus is the externally visible state of an asynchronous
// recognition job. Terminal states are success and failure; a job never
// leaves a terminal state.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobStarted JobStatus = "started"
	JobSuccess JobStatus = "success"
	JobFailure JobStatus = "failure"
)

// JobView is what a polling client sees for a task ID. Plate and
// Alternatives are present only on success; a failed job exposes no
// cause across this boundary.
type JobView struct {
	TaskID       string    `json:"task_id"`
	Status       JobStatus `json:"status"`
	Plate        *string   `json:"plate,omitempty"`
	Alternatives []string  `json:"alternatives,omitempty"`
}
