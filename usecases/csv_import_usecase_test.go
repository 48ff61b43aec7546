package usecases

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/repositories"
)

type fakeTransaction struct{}

func (fakeTransaction) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (fakeTransaction) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (fakeTransaction) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (fakeTransaction) RawTx() pgx.Tx { return nil }

type fakeTransactionFactory struct{}

func (fakeTransactionFactory) GetExecutor() repositories.Executor {
	return fakeTransaction{}
}

func (fakeTransactionFactory) Transaction(ctx context.Context, fn func(tx repositories.Transaction) error) error {
	return fn(fakeTransaction{})
}

type fakeImportJobRepository struct {
	mu   sync.Mutex
	jobs map[string]models.ImportJob
}

func newFakeImportJobRepository(jobs ...models.ImportJob) *fakeImportJobRepository {
	repo := &fakeImportJobRepository{jobs: make(map[string]models.ImportJob)}
	for _, job := range jobs {
		repo.jobs[job.Id] = job
	}
	return repo
}

func (r *fakeImportJobRepository) CreateImportJob(ctx context.Context, exec repositories.Executor, job models.ImportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.Id] = job
	return nil
}

func (r *fakeImportJobRepository) UpdateImportJob(ctx context.Context, exec repositories.Executor,
	input models.UpdateImportJobInput,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[input.Id]
	if !ok {
		return errors.Wrap(models.NotFoundError, "import job not found")
	}
	job.Status = input.Status
	if input.TotalRows != nil {
		job.TotalRows = *input.TotalRows
	}
	if input.ProcessedRows != nil {
		job.ProcessedRows = *input.ProcessedRows
	}
	if input.RowsUpserted != nil {
		job.RowsUpserted = *input.RowsUpserted
	}
	if input.RowsSkipped != nil {
		job.RowsSkipped = *input.RowsSkipped
	}
	if input.ColumnsUsed != nil {
		job.ColumnsUsed = input.ColumnsUsed
	}
	if input.ErrorDetail != nil {
		job.ErrorDetail = input.ErrorDetail
	}
	if input.FinishedAt != nil {
		job.FinishedAt = input.FinishedAt
	}
	r.jobs[input.Id] = job
	return nil
}

func (r *fakeImportJobRepository) GetImportJobById(ctx context.Context, exec repositories.Executor,
	jobId string,
) (models.ImportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobId]
	if !ok {
		return models.ImportJob{}, errors.Wrap(models.NotFoundError, "import job not found")
	}
	return job, nil
}

type fakeSchemaReader struct {
	columns []models.WritableColumn
}

func (r fakeSchemaReader) ListWritableColumns(ctx context.Context, exec repositories.Executor) ([]models.WritableColumn, error) {
	return r.columns, nil
}

// fakeProductImportRepository drains the copy source like the real staged
// load does and replays the upsert's case-insensitive dedup in memory.
type fakeProductImportRepository struct {
	stagedRows [][]any
	upsertErr  error
}

func (r *fakeProductImportRepository) CreateStagingTable(ctx context.Context,
	tx repositories.Transaction, mapping models.ColumnMapping,
) error {
	return nil
}

func (r *fakeProductImportRepository) LoadStaging(ctx context.Context, tx repositories.Transaction,
	mapping models.ColumnMapping, rows pgx.CopyFromSource,
) (int64, error) {
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return int64(len(r.stagedRows)), err
		}
		staged := make([]any, len(values))
		copy(staged, values)
		r.stagedRows = append(r.stagedRows, staged)
	}
	if err := rows.Err(); err != nil {
		return int64(len(r.stagedRows)), err
	}
	return int64(len(r.stagedRows)), nil
}

func (r *fakeProductImportRepository) UpsertFromStaging(ctx context.Context, tx repositories.Transaction,
	mapping models.ColumnMapping, destinationColumns []models.WritableColumn,
) (int64, error) {
	if r.upsertErr != nil {
		return 0, r.upsertErr
	}
	if mapping.SkuIndex == -1 {
		return 0, nil
	}
	distinct := make(map[string]struct{})
	for _, row := range r.stagedRows {
		// row[0] is the sequence column
		sku := row[mapping.SkuIndex+1].(string)
		distinct[strings.ToLower(sku)] = struct{}{}
	}
	return int64(len(distinct)), nil
}

var productColumns = []models.WritableColumn{
	{Name: "sku", DataType: "text"},
	{Name: "name", DataType: "text"},
	{Name: "price", DataType: "numeric"},
	{Name: "active", DataType: "boolean"},
}

type importFixture struct {
	usecase  *CsvImportUsecase
	jobs     *fakeImportJobRepository
	staging  *fakeProductImportRepository
	progress *repositories.InmemProgressChannel
	job      models.ImportJob
}

func setupImport(t *testing.T, csvContent string, opts ...func(*importFixture)) *importFixture {
	t.Helper()

	filePath := filepath.Join(t.TempDir(), "upload.csv")
	require.NoError(t, os.WriteFile(filePath, []byte(csvContent), 0o644))

	job := models.ImportJob{
		Id:       "7c70f1f4-39e7-4517-b70e-5e6a17d1a0dd",
		FileName: "upload.csv",
		FilePath: filePath,
		Status:   models.ImportJobQueued,
	}

	fixture := &importFixture{
		jobs:     newFakeImportJobRepository(job),
		staging:  &fakeProductImportRepository{},
		progress: repositories.NewInmemProgressChannel(),
		job:      job,
	}
	for _, opt := range opts {
		opt(fixture)
	}

	fixture.usecase = &CsvImportUsecase{
		transactionFactory:      fakeTransactionFactory{},
		importJobRepository:     fixture.jobs,
		schemaReader:            fakeSchemaReader{columns: productColumns},
		productImportRepository: fixture.staging,
		progressChannel:         fixture.progress,
		progressEveryRows:       2,
	}
	return fixture
}

func TestProcessCsvImportHappyPath(t *testing.T) {
	csvContent := strings.Join([]string{
		"sku,name,price,active",
		"ABC-1,Widget,9.99,true",
		"ABC-2,Gadget,5.00,false",
		"ABC-3,Gizmo,1.25,true",
	}, "\n")
	fixture := setupImport(t, csvContent)

	err := fixture.usecase.ProcessCsvImport(context.Background(), fixture.job.Id)
	require.NoError(t, err)

	job, err := fixture.jobs.GetImportJobById(context.Background(), nil, fixture.job.Id)
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobDone, job.Status)
	assert.Equal(t, 3, job.TotalRows)
	assert.Equal(t, 3, job.ProcessedRows)
	assert.Equal(t, 3, job.RowsUpserted)
	assert.Equal(t, 0, job.RowsSkipped)
	assert.Equal(t, []string{"sku", "name", "price", "active"}, job.ColumnsUsed)
	assert.NotNil(t, job.FinishedAt)

	// the uploaded file is removed once the job finished
	_, statErr := os.Stat(fixture.job.FilePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestProcessCsvImportCaseInsensitiveLastRowWins(t *testing.T) {
	csvContent := strings.Join([]string{
		"SKU,Name",
		"abc-1,first",
		"ABC-1,second",
		"Abc-1,third",
	}, "\n")
	fixture := setupImport(t, csvContent)

	require.NoError(t, fixture.usecase.ProcessCsvImport(context.Background(), fixture.job.Id))

	job, _ := fixture.jobs.GetImportJobById(context.Background(), nil, fixture.job.Id)
	assert.Equal(t, models.ImportJobDone, job.Status)
	assert.Equal(t, 3, job.ProcessedRows)
	// three case variants of the same sku collapse to one destination row
	assert.Equal(t, 1, job.RowsUpserted)
	assert.Len(t, fixture.staging.stagedRows, 3)
}

func TestProcessCsvImportSkipsInvalidRows(t *testing.T) {
	csvContent := strings.Join([]string{
		"sku,name,price",
		"ABC-1,ok,10.50",
		",missing sku,1.00",
		"   ,blank sku,2.00",
		"ABC-2,bad price,not-a-number",
		"ABC-3,fine,3",
	}, "\n")
	fixture := setupImport(t, csvContent)

	require.NoError(t, fixture.usecase.ProcessCsvImport(context.Background(), fixture.job.Id))

	job, _ := fixture.jobs.GetImportJobById(context.Background(), nil, fixture.job.Id)
	assert.Equal(t, models.ImportJobDone, job.Status)
	assert.Equal(t, 5, job.TotalRows)
	assert.Equal(t, 5, job.ProcessedRows)
	assert.Equal(t, 3, job.RowsSkipped)
	assert.Equal(t, 2, job.RowsUpserted)
}

func TestProcessCsvImportNoMatchingColumns(t *testing.T) {
	csvContent := strings.Join([]string{
		"foo,bar",
		"1,2",
	}, "\n")
	fixture := setupImport(t, csvContent)

	err := fixture.usecase.ProcessCsvImport(context.Background(), fixture.job.Id)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.SchemaMismatchError)

	job, _ := fixture.jobs.GetImportJobById(context.Background(), nil, fixture.job.Id)
	assert.Equal(t, models.ImportJobFailed, job.Status)
	require.NotNil(t, job.ErrorDetail)
	assert.NotEmpty(t, *job.ErrorDetail)
	// nothing reached the staging load
	assert.Empty(t, fixture.staging.stagedRows)

	_, statErr := os.Stat(fixture.job.FilePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestProcessCsvImportEmptyFile(t *testing.T) {
	fixture := setupImport(t, "")

	err := fixture.usecase.ProcessCsvImport(context.Background(), fixture.job.Id)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.SchemaMismatchError)

	job, _ := fixture.jobs.GetImportJobById(context.Background(), nil, fixture.job.Id)
	assert.Equal(t, models.ImportJobFailed, job.Status)
}

func TestProcessCsvImportHeaderOnly(t *testing.T) {
	fixture := setupImport(t, "sku,name\n")

	require.NoError(t, fixture.usecase.ProcessCsvImport(context.Background(), fixture.job.Id))

	job, _ := fixture.jobs.GetImportJobById(context.Background(), nil, fixture.job.Id)
	assert.Equal(t, models.ImportJobDone, job.Status)
	assert.Equal(t, 0, job.TotalRows)
	assert.Equal(t, 0, job.RowsUpserted)
}

func TestProcessCsvImportNoSkuColumn(t *testing.T) {
	csvContent := strings.Join([]string{
		"name,price",
		"no key here,1.00",
	}, "\n")
	fixture := setupImport(t, csvContent)

	require.NoError(t, fixture.usecase.ProcessCsvImport(context.Background(), fixture.job.Id))

	job, _ := fixture.jobs.GetImportJobById(context.Background(), nil, fixture.job.Id)
	// mapping is valid but every row lacks the business key
	assert.Equal(t, models.ImportJobDone, job.Status)
	assert.Equal(t, 1, job.RowsSkipped)
	assert.Equal(t, 0, job.RowsUpserted)
}

func TestProcessCsvImportTerminalJobIsNotRerun(t *testing.T) {
	fixture := setupImport(t, "sku\nABC-1\n", func(f *importFixture) {
		done := f.job
		done.Status = models.ImportJobDone
		f.jobs.jobs[done.Id] = done
	})

	require.NoError(t, fixture.usecase.ProcessCsvImport(context.Background(), fixture.job.Id))

	// nothing was staged and the file was left alone
	assert.Empty(t, fixture.staging.stagedRows)
	_, statErr := os.Stat(fixture.job.FilePath)
	assert.NoError(t, statErr)
}

func TestProcessCsvImportUnknownJob(t *testing.T) {
	fixture := setupImport(t, "sku\nABC-1\n")

	err := fixture.usecase.ProcessCsvImport(context.Background(), "dead-beef")
	assert.ErrorIs(t, err, models.NotFoundError)
}

func TestProcessCsvImportUpsertFailureFailsJob(t *testing.T) {
	fixture := setupImport(t, "sku\nABC-1\n", func(f *importFixture) {
		f.staging.upsertErr = errors.Mark(errors.New("deadlock detected"), models.StorageError)
	})

	err := fixture.usecase.ProcessCsvImport(context.Background(), fixture.job.Id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.StorageError))

	job, _ := fixture.jobs.GetImportJobById(context.Background(), nil, fixture.job.Id)
	assert.Equal(t, models.ImportJobFailed, job.Status)
}

func TestProcessCsvImportProgressEventsAreMonotonic(t *testing.T) {
	var rows []string
	rows = append(rows, "sku,name")
	for i := 0; i < 20; i++ {
		rows = append(rows, "SKU-"+string(rune('a'+i))+",item")
	}
	fixture := setupImport(t, strings.Join(rows, "\n"))

	events, cancel, err := fixture.progress.Subscribe(context.Background(), fixture.job.Id)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, fixture.usecase.ProcessCsvImport(context.Background(), fixture.job.Id))

	var collected []models.ProgressEvent
	for event := range events {
		collected = append(collected, event)
	}
	require.NotEmpty(t, collected)

	last := -1.0
	for _, event := range collected {
		assert.GreaterOrEqual(t, event.Progress, last,
			"progress went backwards at status %s", event.Status)
		last = event.Progress
	}
	final := collected[len(collected)-1]
	assert.Equal(t, string(models.ImportJobDone), final.Status)
	assert.Equal(t, 1.0, final.Progress)
}
