package dbmodels

import (
	"time"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/utils"
)

type DBImportJob struct {
	Id            string     `db:"id"`
	FileName      string     `db:"file_name"`
	FilePath      string     `db:"file_path"`
	Status        string     `db:"status"`
	TotalRows     int        `db:"total_rows"`
	ProcessedRows int        `db:"processed_rows"`
	RowsUpserted  int        `db:"rows_upserted"`
	RowsSkipped   int        `db:"rows_skipped"`
	ColumnsUsed   []string   `db:"columns_used"`
	ErrorDetail   *string    `db:"error_detail"`
	StartedAt     time.Time  `db:"started_at"`
	FinishedAt    *time.Time `db:"finished_at"`
}

const TABLE_IMPORT_JOBS = "import_jobs"

var SelectImportJobColumn = utils.ColumnList[DBImportJob]()

func AdaptImportJob(db DBImportJob) (models.ImportJob, error) {
	return models.ImportJob{
		Id:            db.Id,
		FileName:      db.FileName,
		FilePath:      db.FilePath,
		Status:        models.ImportJobStatusFrom(db.Status),
		TotalRows:     db.TotalRows,
		ProcessedRows: db.ProcessedRows,
		RowsUpserted:  db.RowsUpserted,
		RowsSkipped:   db.RowsSkipped,
		ColumnsUsed:   db.ColumnsUsed,
		ErrorDetail:   db.ErrorDetail,
		StartedAt:     db.StartedAt,
		FinishedAt:    db.FinishedAt,
	}, nil
}
