package dto

import (
	"time"

	"github.com/guregu/null/v5"

	"github.com/acme/product-importer/models"
)

type ImportJobDto struct {
	Id            string      `json:"job_id"`
	FileName      string      `json:"file_name"`
	Status        string      `json:"status"`
	TotalRows     int         `json:"total_rows"`
	ProcessedRows int         `json:"processed_rows"`
	RowsUpserted  int         `json:"rows_upserted"`
	RowsSkipped   int         `json:"rows_skipped"`
	ColumnsUsed   []string    `json:"columns_used"`
	ErrorDetail   null.String `json:"error,omitempty"`
	StartedAt     time.Time   `json:"started_at"`
	FinishedAt    null.Time   `json:"finished_at"`
}

func AdaptImportJobDto(job models.ImportJob) ImportJobDto {
	columnsUsed := job.ColumnsUsed
	if columnsUsed == nil {
		columnsUsed = []string{}
	}
	return ImportJobDto{
		Id:            job.Id,
		FileName:      job.FileName,
		Status:        string(job.Status),
		TotalRows:     job.TotalRows,
		ProcessedRows: job.ProcessedRows,
		RowsUpserted:  job.RowsUpserted,
		RowsSkipped:   job.RowsSkipped,
		ColumnsUsed:   columnsUsed,
		ErrorDetail:   null.StringFromPtr(job.ErrorDetail),
		StartedAt:     job.StartedAt,
		FinishedAt:    null.TimeFromPtr(job.FinishedAt),
	}
}
