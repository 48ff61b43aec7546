package models

import "time"

// ImportJob is the durable record of one CSV import. It is created by the
// submission gateway, mutated only by the worker executing the job, and
// remains queryable after the worker exits.
type ImportJob struct {
	Id            string
	FileName      string
	FilePath      string
	Status        ImportJobStatus
	TotalRows     int
	ProcessedRows int
	RowsUpserted  int
	RowsSkipped   int
	ColumnsUsed   []string
	ErrorDetail   *string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

type ImportJobStatus string

const (
	ImportJobQueued     ImportJobStatus = "queued"
	ImportJobStarted    ImportJobStatus = "started"
	ImportJobCounting   ImportJobStatus = "counting"
	ImportJobValidating ImportJobStatus = "validating"
	ImportJobLoading    ImportJobStatus = "loading"
	ImportJobUpserting  ImportJobStatus = "upserting"
	ImportJobDone       ImportJobStatus = "done"
	ImportJobFailed     ImportJobStatus = "failed"
)

func ImportJobStatusFrom(s string) ImportJobStatus {
	switch ImportJobStatus(s) {
	case ImportJobStarted, ImportJobCounting, ImportJobValidating,
		ImportJobLoading, ImportJobUpserting, ImportJobDone, ImportJobFailed:
		return ImportJobStatus(s)
	}
	return ImportJobQueued
}

// IsTerminal reports whether the job reached a final state. Terminal jobs are
// never re-executed, which is what makes queue redelivery safe.
func (s ImportJobStatus) IsTerminal() bool {
	return s == ImportJobDone || s == ImportJobFailed
}

type UpdateImportJobInput struct {
	Id            string
	Status        ImportJobStatus
	TotalRows     *int
	ProcessedRows *int
	RowsUpserted  *int
	RowsSkipped   *int
	ColumnsUsed   []string
	ErrorDetail   *string
	FinishedAt    *time.Time
}
