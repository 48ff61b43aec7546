package worker

import (
	"context"
	"time"

	"github.com/riverqueue/river"

	"github.com/acme/product-importer/models"
)

const CSV_IMPORT_TIMEOUT = 1 * time.Hour

type CsvImportUsecase interface {
	ProcessCsvImport(ctx context.Context, jobId string) error
}

type CsvImportWorker struct {
	river.WorkerDefaults[models.CsvImportArgs]

	importUsecase CsvImportUsecase
}

func NewCsvImportWorker(importUsecase CsvImportUsecase) *CsvImportWorker {
	return &CsvImportWorker{
		importUsecase: importUsecase,
	}
}

func (w *CsvImportWorker) Timeout(job *river.Job[models.CsvImportArgs]) time.Duration {
	return CSV_IMPORT_TIMEOUT
}

func (w *CsvImportWorker) Work(ctx context.Context, job *river.Job[models.CsvImportArgs]) error {
	return w.importUsecase.ProcessCsvImport(ctx, job.Args.JobId)
}
