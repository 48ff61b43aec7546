package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/repositories/dbmodels"
)

type ImportJobRepository interface {
	CreateImportJob(ctx context.Context, exec Executor, job models.ImportJob) error
	UpdateImportJob(ctx context.Context, exec Executor, input models.UpdateImportJobInput) error
	GetImportJobById(ctx context.Context, exec Executor, jobId string) (models.ImportJob, error)
}

type ImportJobRepositoryPostgresql struct{}

func (repo ImportJobRepositoryPostgresql) CreateImportJob(
	ctx context.Context,
	exec Executor,
	job models.ImportJob,
) error {
	sql, args, err := NewQueryBuilder().
		Insert(dbmodels.TABLE_IMPORT_JOBS).
		Columns(
			"id",
			"file_name",
			"file_path",
			"status",
			"started_at",
		).
		Values(
			job.Id,
			job.FileName,
			job.FilePath,
			job.Status,
			job.StartedAt,
		).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "can't build sql query")
	}

	_, err = exec.Exec(ctx, sql, args...)
	return errors.Wrap(err, "error creating import job")
}

func (repo ImportJobRepositoryPostgresql) UpdateImportJob(
	ctx context.Context,
	exec Executor,
	input models.UpdateImportJobInput,
) error {
	query := NewQueryBuilder().
		Update(dbmodels.TABLE_IMPORT_JOBS).
		Where(squirrel.Eq{"id": input.Id})

	if input.Status != "" {
		query = query.Set("status", input.Status)
	}
	if input.TotalRows != nil {
		query = query.Set("total_rows", *input.TotalRows)
	}
	if input.ProcessedRows != nil {
		query = query.Set("processed_rows", *input.ProcessedRows)
	}
	if input.RowsUpserted != nil {
		query = query.Set("rows_upserted", *input.RowsUpserted)
	}
	if input.RowsSkipped != nil {
		query = query.Set("rows_skipped", *input.RowsSkipped)
	}
	if input.ColumnsUsed != nil {
		query = query.Set("columns_used", input.ColumnsUsed)
	}
	if input.ErrorDetail != nil {
		query = query.Set("error_detail", *input.ErrorDetail)
	}
	if input.FinishedAt != nil {
		query = query.Set("finished_at", *input.FinishedAt)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "can't build sql query")
	}

	_, err = exec.Exec(ctx, sql, args...)
	return errors.Wrap(err, "error updating import job")
}

func (repo ImportJobRepositoryPostgresql) GetImportJobById(
	ctx context.Context,
	exec Executor,
	jobId string,
) (models.ImportJob, error) {
	return SqlToModel(
		ctx,
		exec,
		NewQueryBuilder().
			Select(dbmodels.SelectImportJobColumn...).
			From(dbmodels.TABLE_IMPORT_JOBS).
			Where(squirrel.Eq{"id": jobId}),
		dbmodels.AdaptImportJob,
	)
}
