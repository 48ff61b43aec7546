package models

// ProgressEvent is one update published to a job's progress channel. Events
// are transient: they are broadcast to whoever is subscribed at publication
// time and never persisted. A late subscriber must rely on the terminal event
// plus a job status query for the authoritative final state.
type ProgressEvent struct {
	JobId       string  `json:"job_id"`
	Status      string  `json:"status"`
	Progress    float64 `json:"progress"`
	Total       int     `json:"total,omitempty"`
	Processed   int     `json:"processed,omitempty"`
	Upserted    int     `json:"upserted,omitempty"`
	Skipped     int     `json:"skipped,omitempty"`
	Message     string  `json:"message,omitempty"`
	ErrorDetail string  `json:"error,omitempty"`
}

// IsTerminal reports whether no further event will follow on the channel.
func (e ProgressEvent) IsTerminal() bool {
	return e.Status == string(ImportJobDone) || e.Status == string(ImportJobFailed)
}
