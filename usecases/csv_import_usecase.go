package usecases

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/repositories"
	"github.com/acme/product-importer/utils"
)

// Progress is reported as a fraction split into fixed bands, one per phase,
// so that the cheap phases around the bulk load remain visible to observers.
// Within a job the published fraction never decreases.
const (
	progressStarted      = 0.0
	progressCounting     = 0.02
	progressValidating   = 0.05
	progressLoadingStart = 0.10
	progressLoadingEnd   = 0.80
	progressDone         = 1.0
)

const defaultProgressEveryRows = 10_000

type transactionFactory interface {
	GetExecutor() repositories.Executor
	Transaction(ctx context.Context, fn func(tx repositories.Transaction) error) error
}

type destinationSchemaReader interface {
	ListWritableColumns(ctx context.Context, exec repositories.Executor) ([]models.WritableColumn, error)
}

// CsvImportUsecase executes one import job end to end: counting, schema
// reconciliation, the streamed staging load and the final upsert. It is the
// only writer of the job's record and of the destination table, and the only
// publisher on the job's progress channel.
type CsvImportUsecase struct {
	transactionFactory      transactionFactory
	importJobRepository     repositories.ImportJobRepository
	schemaReader            destinationSchemaReader
	productImportRepository repositories.ProductImportRepository
	progressChannel         repositories.ProgressChannelRepository
	progressEveryRows       int
}

// ProcessCsvImport runs the import job state machine. Returning an error
// before the terminal state is persisted makes the queue surface the job as
// failed rather than complete, so no fatal path is silently dropped.
func (uc *CsvImportUsecase) ProcessCsvImport(ctx context.Context, jobId string) error {
	exec := uc.transactionFactory.GetExecutor()
	logger := utils.LoggerFromContext(ctx).With("job_id", jobId)
	ctx = utils.StoreLoggerInContext(ctx, logger)

	job, err := uc.importJobRepository.GetImportJobById(ctx, exec, jobId)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		// queue redelivery of a finished job: deduplicate on the job id
		logger.InfoContext(ctx, "Import job already reached a terminal state, skipping",
			"status", job.Status)
		return nil
	}

	run := &csvImportRun{usecase: uc, exec: exec, job: job}
	importErr := run.execute(ctx)

	// the uploaded file is deleted whatever the outcome, so failed uploads
	// do not accumulate
	if err := os.Remove(job.FilePath); err != nil && !os.IsNotExist(err) {
		logger.WarnContext(ctx, "Could not delete uploaded file",
			"file_path", job.FilePath, "error", err.Error())
	}

	if importErr != nil {
		return run.fail(ctx, importErr)
	}
	return run.succeed(ctx)
}

// csvImportRun carries one execution's mutable state through the phases.
type csvImportRun struct {
	usecase *CsvImportUsecase
	exec    repositories.Executor
	job     models.ImportJob

	mapping            models.ColumnMapping
	destinationColumns []models.WritableColumn
	total              int
	processed          int
	skipped            int
	upserted           int64
	lastProgress       float64
}

func (run *csvImportRun) execute(ctx context.Context) error {
	// a previous delivery may have died mid-flight: restart from scratch
	// with clean counters, the upsert makes re-applying rows idempotent
	zero := 0
	if err := run.usecase.importJobRepository.UpdateImportJob(ctx, run.exec, models.UpdateImportJobInput{
		Id:            run.job.Id,
		Status:        models.ImportJobStarted,
		TotalRows:     &zero,
		ProcessedRows: &zero,
		RowsUpserted:  &zero,
		RowsSkipped:   &zero,
	}); err != nil {
		return err
	}
	run.publish(ctx, models.ImportJobStarted, progressStarted, "Import started")

	if err := run.countRows(ctx); err != nil {
		return err
	}
	if err := run.resolveColumnMapping(ctx); err != nil {
		return err
	}
	return run.loadAndUpsert(ctx)
}

// countRows streams the file once to establish the denominator for the
// loading phase's percentage math. No row is materialized.
func (run *csvImportRun) countRows(ctx context.Context) error {
	if err := run.setStatus(ctx, models.ImportJobCounting); err != nil {
		return err
	}
	run.publish(ctx, models.ImportJobCounting, progressCounting, "Counting rows")

	file, err := os.Open(run.job.FilePath)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "error opening uploaded file"), models.FileReadError)
	}
	defer file.Close()

	reader := newCsvReader(file)
	sawHeader := false
	for {
		if _, err := reader.Read(); err == io.EOF {
			break
		} else if err != nil {
			return errors.Mark(errors.Wrap(err, "error counting csv rows"), models.FileReadError)
		}
		if !sawHeader {
			sawHeader = true
			continue
		}
		run.total++
	}

	return run.usecase.importJobRepository.UpdateImportJob(ctx, run.exec, models.UpdateImportJobInput{
		Id:        run.job.Id,
		Status:    models.ImportJobCounting,
		TotalRows: &run.total,
	})
}

// resolveColumnMapping intersects the file header with the live destination
// schema. The mapping is computed once and threaded through the remaining
// phases unchanged.
func (run *csvImportRun) resolveColumnMapping(ctx context.Context) error {
	if err := run.setStatus(ctx, models.ImportJobValidating); err != nil {
		return err
	}
	run.publish(ctx, models.ImportJobValidating, progressValidating, "Validating columns")

	file, err := os.Open(run.job.FilePath)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "error opening uploaded file"), models.FileReadError)
	}
	defer file.Close()

	header, err := newCsvReader(file).Read()
	if err == io.EOF {
		return errors.Wrap(models.SchemaMismatchError, "file has no header row")
	} else if err != nil {
		return errors.Mark(errors.Wrap(err, "error reading csv header"), models.FileReadError)
	}

	columns, err := run.usecase.schemaReader.ListWritableColumns(ctx, run.exec)
	if err != nil {
		return err
	}
	run.destinationColumns = columns

	mapping, err := models.ComputeColumnMapping(header, models.WritableColumnNames(columns))
	if err != nil {
		return err
	}
	run.mapping = mapping

	return run.usecase.importJobRepository.UpdateImportJob(ctx, run.exec, models.UpdateImportJobInput{
		Id:          run.job.Id,
		Status:      models.ImportJobValidating,
		ColumnsUsed: mapping.Columns,
	})
}

// loadAndUpsert re-streams the file into the staging table, then applies it
// to the destination with a single conflict-resolving statement. Both steps
// share one transaction: a failure anywhere leaves the destination untouched.
func (run *csvImportRun) loadAndUpsert(ctx context.Context) error {
	if err := run.setStatus(ctx, models.ImportJobLoading); err != nil {
		return err
	}
	run.publish(ctx, models.ImportJobLoading, progressLoadingStart, "Loading rows into staging")

	file, err := os.Open(run.job.FilePath)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "error opening uploaded file"), models.FileReadError)
	}
	defer file.Close()

	reader := newCsvReader(file)
	if _, err := reader.Read(); err != nil && err != io.EOF {
		return errors.Mark(errors.Wrap(err, "error skipping csv header"), models.FileReadError)
	}

	return run.usecase.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
		if err := run.usecase.productImportRepository.CreateStagingTable(ctx, tx, run.mapping); err != nil {
			return err
		}

		source := &csvCopySource{
			reader:  reader,
			mapping: run.mapping,
			typed:   typedColumnValidators(run.mapping, run.destinationColumns),
			onRow:   func() { run.checkpoint(ctx) },
		}
		if _, err := run.usecase.productImportRepository.LoadStaging(ctx, tx, run.mapping, source); err != nil {
			return err
		}
		run.processed = source.processed
		run.skipped = source.skipped

		if err := run.setStatus(ctx, models.ImportJobUpserting); err != nil {
			return err
		}
		run.publish(ctx, models.ImportJobUpserting, progressLoadingEnd, "Upserting products")

		upserted, err := run.usecase.productImportRepository.UpsertFromStaging(
			ctx, tx, run.mapping, run.destinationColumns)
		if err != nil {
			return err
		}
		run.upserted = upserted
		return nil
	})
}

func (run *csvImportRun) succeed(ctx context.Context) error {
	now := time.Now()
	upserted := int(run.upserted)
	if err := run.usecase.importJobRepository.UpdateImportJob(ctx, run.exec, models.UpdateImportJobInput{
		Id:            run.job.Id,
		Status:        models.ImportJobDone,
		ProcessedRows: &run.processed,
		RowsUpserted:  &upserted,
		RowsSkipped:   &run.skipped,
		FinishedAt:    &now,
	}); err != nil {
		return err
	}

	run.publishEvent(ctx, models.ProgressEvent{
		JobId:     run.job.Id,
		Status:    string(models.ImportJobDone),
		Progress:  progressDone,
		Total:     run.total,
		Processed: run.processed,
		Upserted:  upserted,
		Skipped:   run.skipped,
		Message:   "Import complete",
	})

	logger := utils.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "Import done",
		"total", run.total,
		"upserted", upserted,
		"skipped", run.skipped,
		"columns", run.mapping.Columns)
	return nil
}

// fail persists the terminal failure before anything else: a job must never
// look complete to the queue while its record still says it is running.
func (run *csvImportRun) fail(ctx context.Context, importErr error) error {
	now := time.Now()
	detail := importErr.Error()
	if err := run.usecase.importJobRepository.UpdateImportJob(ctx, run.exec, models.UpdateImportJobInput{
		Id:            run.job.Id,
		Status:        models.ImportJobFailed,
		ProcessedRows: &run.processed,
		RowsSkipped:   &run.skipped,
		ErrorDetail:   &detail,
		FinishedAt:    &now,
	}); err != nil {
		return errors.CombineErrors(importErr, err)
	}

	run.publishEvent(ctx, models.ProgressEvent{
		JobId:       run.job.Id,
		Status:      string(models.ImportJobFailed),
		Progress:    run.lastProgress,
		Total:       run.total,
		Processed:   run.processed,
		Skipped:     run.skipped,
		Message:     "Import failed",
		ErrorDetail: detail,
	})
	return importErr
}

func (run *csvImportRun) setStatus(ctx context.Context, status models.ImportJobStatus) error {
	return run.usecase.importJobRepository.UpdateImportJob(ctx, run.exec, models.UpdateImportJobInput{
		Id:     run.job.Id,
		Status: status,
	})
}

// checkpoint reports loading progress every progressEveryRows rows. The
// counter update goes through the pool, not the import transaction, so an
// observer polling the job record sees it immediately.
func (run *csvImportRun) checkpoint(ctx context.Context) {
	run.processed++
	interval := run.usecase.progressEveryRows
	if interval <= 0 {
		interval = defaultProgressEveryRows
	}
	if run.processed%interval != 0 {
		return
	}

	processed := run.processed
	if err := run.usecase.importJobRepository.UpdateImportJob(ctx, run.exec, models.UpdateImportJobInput{
		Id:            run.job.Id,
		Status:        models.ImportJobLoading,
		ProcessedRows: &processed,
	}); err != nil {
		logger := utils.LoggerFromContext(ctx)
		logger.WarnContext(ctx, "Could not persist progress checkpoint", "error", err.Error())
	}

	fraction := progressLoadingEnd
	if run.total > 0 {
		fraction = progressLoadingStart +
			(progressLoadingEnd-progressLoadingStart)*float64(run.processed)/float64(run.total)
	}
	run.publish(ctx, models.ImportJobLoading, fraction, "Loading rows into staging")
}

// publish emits a phase event, clamped so the fraction a subscriber observes
// is non-decreasing for the lifetime of the job.
func (run *csvImportRun) publish(ctx context.Context, status models.ImportJobStatus, progress float64, message string) {
	if progress < run.lastProgress {
		progress = run.lastProgress
	}
	run.lastProgress = progress

	run.publishEvent(ctx, models.ProgressEvent{
		JobId:     run.job.Id,
		Status:    string(status),
		Progress:  progress,
		Total:     run.total,
		Processed: run.processed,
		Skipped:   run.skipped,
		Message:   message,
	})
}

func (run *csvImportRun) publishEvent(ctx context.Context, event models.ProgressEvent) {
	if err := run.usecase.progressChannel.Publish(ctx, event); err != nil {
		// progress is best-effort: losing an event never fails the import
		logger := utils.LoggerFromContext(ctx)
		logger.WarnContext(ctx, "Could not publish progress event", "error", err.Error())
	}
}

func newCsvReader(file io.Reader) *csv.Reader {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	return reader
}

// csvCopySource adapts the csv stream to pgx's CopyFrom protocol. Rows are
// pulled one at a time, projected through the column mapping and validated;
// rows with a blank business key or a malformed typed value are skipped and
// tallied, never staged and never fatal. Memory use is constant in the file
// size.
type csvCopySource struct {
	reader  *csv.Reader
	mapping models.ColumnMapping
	typed   map[int]func(string) bool
	onRow   func()

	seq       int64
	values    []any
	err       error
	processed int
	skipped   int
}

func (s *csvCopySource) Next() bool {
	for {
		record, err := s.reader.Read()
		if err == io.EOF {
			return false
		} else if err != nil {
			s.err = errors.Mark(errors.Wrap(err, "error reading csv row"), models.FileReadError)
			return false
		}
		s.processed++
		s.onRow()

		values := s.mapping.Project(record)
		if !s.rowIsValid(values) {
			s.skipped++
			continue
		}

		s.seq++
		row := make([]any, 0, len(values)+1)
		row = append(row, s.seq)
		for _, value := range values {
			row = append(row, value)
		}
		s.values = row
		return true
	}
}

func (s *csvCopySource) rowIsValid(values []string) bool {
	// the upsert is keyed on the sku: a row without one cannot be written
	if s.mapping.SkuIndex == -1 || values[s.mapping.SkuIndex] == "" {
		return false
	}
	for i, valid := range s.typed {
		if values[i] != "" && !valid(values[i]) {
			return false
		}
	}
	return true
}

func (s *csvCopySource) Values() ([]any, error) {
	return s.values, nil
}

func (s *csvCopySource) Err() error {
	return s.err
}

// typedColumnValidators returns, per mapped column position, a validity check
// for the destination column's type. Text columns need none; anything staged
// must survive the cast in the upsert statement.
func typedColumnValidators(
	mapping models.ColumnMapping,
	destinationColumns []models.WritableColumn,
) map[int]func(string) bool {
	dataTypes := make(map[string]string, len(destinationColumns))
	for _, col := range destinationColumns {
		dataTypes[col.Name] = col.DataType
	}

	validators := make(map[int]func(string) bool)
	for i, col := range mapping.Columns {
		switch dataTypes[col] {
		case "numeric", "double precision", "real":
			validators[i] = isValidNumeric
		case "integer", "bigint", "smallint":
			validators[i] = isValidInteger
		case "boolean":
			validators[i] = isValidBoolean
		}
	}
	return validators
}

func isValidNumeric(value string) bool {
	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}

func isValidInteger(value string) bool {
	_, err := strconv.ParseInt(value, 10, 64)
	return err == nil
}

// postgres boolean literals, a superset of strconv.ParseBool
var booleanLiterals = map[string]bool{
	"t": true, "true": true, "y": true, "yes": true, "on": true, "1": true,
	"f": true, "false": true, "n": true, "no": true, "off": true, "0": true,
}

func isValidBoolean(value string) bool {
	return booleanLiterals[strings.ToLower(value)]
}

var _ pgx.CopyFromSource = (*csvCopySource)(nil)
